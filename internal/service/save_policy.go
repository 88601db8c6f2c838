// Package service 实现文档持久化核心逻辑
package service

import (
	"strings"
	"time"
	"unicode/utf8"
)

// SavePolicyConfig 保存策略配置
type SavePolicyConfig struct {
	// SaveInterval 距上次落库超过该时长则保存
	SaveInterval time.Duration
	// MinContentChangeChars 内容长度变化达到该字符数则保存
	MinContentChangeChars int
	// SentenceTerminators 句子结束符集合，ASCII 与中文标点
	SentenceTerminators []rune
}

// DefaultSentenceTerminators 默认句子结束符
var DefaultSentenceTerminators = []rune{'.', '!', '?', '。', '！', '？', '\n'}

// DefaultSavePolicyConfig 返回默认保存策略配置
func DefaultSavePolicyConfig() SavePolicyConfig {
	return SavePolicyConfig{
		SaveInterval:          10 * time.Second,
		MinContentChangeChars: 10,
		SentenceTerminators:   DefaultSentenceTerminators,
	}
}

// TrackerState 单个文档的落库状态
// 只由 worker 协程读写，无需加锁
type TrackerState struct {
	LastSaveTime     time.Time
	LastSavedContent string
}

// SavePolicy 保存决策，纯函数，无副作用
type SavePolicy struct {
	cfg SavePolicyConfig
}

// NewSavePolicy 创建保存策略
func NewSavePolicy(cfg SavePolicyConfig) *SavePolicy {
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = 10 * time.Second
	}
	if cfg.MinContentChangeChars <= 0 {
		cfg.MinContentChangeChars = 10
	}
	if len(cfg.SentenceTerminators) == 0 {
		cfg.SentenceTerminators = DefaultSentenceTerminators
	}
	return &SavePolicy{cfg: cfg}
}

// ShouldSave 判断当前请求是否需要落库
// state 为 nil 表示该文档首次出现，必定保存
func (p *SavePolicy) ShouldSave(state *TrackerState, content string, now time.Time) bool {
	// 首次写入
	if state == nil {
		return true
	}

	// 距上次保存超过间隔
	if now.Sub(state.LastSaveTime) >= p.cfg.SaveInterval {
		return true
	}

	if content == state.LastSavedContent {
		return false
	}

	// 长度变化达到阈值
	delta := utf8.RuneCountInString(content) - utf8.RuneCountInString(state.LastSavedContent)
	if delta < 0 {
		delta = -delta
	}
	if delta >= p.cfg.MinContentChangeChars {
		return true
	}

	// 新增内容以句子结束符收尾
	if p.endsWithSentence(state.LastSavedContent, content) {
		return true
	}

	return false
}

// endsWithSentence 判断本次追加的后缀去掉尾部空白后是否以句子结束符结尾
// 仅在内容单纯变长时有定义
func (p *SavePolicy) endsWithSentence(lastSaved, content string) bool {
	if len(content) <= len(lastSaved) {
		return false
	}
	appended := content[len(lastSaved):]
	// 换行本身是结束符，不在裁剪范围内
	appended = strings.TrimRightFunc(appended, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r'
	})
	if appended == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(appended)
	for _, t := range p.cfg.SentenceTerminators {
		if last == t {
			return true
		}
	}
	return false
}
