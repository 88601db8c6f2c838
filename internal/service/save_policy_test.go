package service

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func testPolicy() *SavePolicy {
	return NewSavePolicy(DefaultSavePolicyConfig())
}

func TestSavePolicyFirstSave(t *testing.T) {
	p := testPolicy()

	// 无状态时首次写入必定保存
	assert.True(t, p.ShouldSave(nil, "", time.Now()))
	assert.True(t, p.ShouldSave(nil, "anything", time.Now()))
}

func TestSavePolicyIntervalTrigger(t *testing.T) {
	p := testPolicy()
	now := time.Now()

	state := &TrackerState{
		LastSaveTime:     now.Add(-11 * time.Second),
		LastSavedContent: "same content",
	}

	// 超过间隔即保存，内容是否变化无关
	assert.True(t, p.ShouldSave(state, "same content", now))
	assert.True(t, p.ShouldSave(state, "different", now))
}

func TestSavePolicyLengthChangeTrigger(t *testing.T) {
	p := testPolicy()
	now := time.Now()

	state := &TrackerState{
		LastSaveTime:     now.Add(-2 * time.Second),
		LastSavedContent: "abc",
	}

	// 变长 10 个字符
	assert.True(t, p.ShouldSave(state, "abc0123456789", now))
	// 变短也计入变化量
	longState := &TrackerState{
		LastSaveTime:     now.Add(-2 * time.Second),
		LastSavedContent: "abcdefghijklmn",
	}
	assert.True(t, p.ShouldSave(longState, "abc", now))
	// 变化量不足
	assert.False(t, p.ShouldSave(state, "abcdefgh", now))
}

func TestSavePolicyLengthChangeCountsRunes(t *testing.T) {
	p := testPolicy()
	now := time.Now()

	state := &TrackerState{
		LastSaveTime:     now.Add(-2 * time.Second),
		LastSavedContent: "文档",
	}

	// 追加 9 个汉字，字符变化量 9 < 10，字节数远超阈值但不触发
	assert.False(t, p.ShouldSave(state, "文档一二三四五六七八九", now))
	// 追加 10 个汉字则触发
	assert.True(t, p.ShouldSave(state, "文档一二三四五六七八九十", now))
}

func TestSavePolicySentenceTrigger(t *testing.T) {
	p := testPolicy()
	now := time.Now()

	state := &TrackerState{
		LastSaveTime:     now.Add(-2 * time.Second),
		LastSavedContent: "Hello",
	}

	cases := []struct {
		name    string
		content string
		want    bool
	}{
		{"ascii period", "Hello world.", true},
		{"ascii question", "Hello?", true},
		{"ascii bang", "Hello!", true},
		{"cjk period", "Hello 你好。", true},
		{"cjk bang", "Hello 你好！", true},
		{"cjk question", "Hello 你好？", true},
		{"newline", "Hello\n", true},
		{"trailing spaces after period", "Hello.  ", true},
		{"no terminator", "Hello wor", false},
		{"content shrank", "Hel", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, p.ShouldSave(state, c.content, now))
		})
	}
}

func TestSavePolicyUnchangedContentSkips(t *testing.T) {
	p := testPolicy()
	now := time.Now()

	state := &TrackerState{
		LastSaveTime:     now.Add(-2 * time.Second),
		LastSavedContent: "stable.",
	}

	// 内容未变且间隔未到，即使内容以句号结尾也不保存
	assert.False(t, p.ShouldSave(state, "stable.", now))
}

// 长度变化达到阈值时无论间隔长短都保存
func TestPropertyLengthChangeAlwaysSaves(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	p := testPolicy()

	properties.Property("delta >= min chars implies save", prop.ForAll(
		func(baseLen int, extraLen int, elapsedMs int) bool {
			base := strings.Repeat("a", baseLen)
			content := base + strings.Repeat("b", 10+extraLen)
			now := time.Now()
			state := &TrackerState{
				LastSaveTime:     now.Add(-time.Duration(elapsedMs) * time.Millisecond),
				LastSavedContent: base,
			}
			return p.ShouldSave(state, content, now)
		},
		gen.IntRange(0, 200),
		gen.IntRange(0, 100),
		gen.IntRange(0, 9000),
	))

	properties.TestingRun(t)
}

// 内容未变时只有时间条件能触发保存
func TestPropertyUnchangedContentOnlyTimeTriggers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	p := testPolicy()

	properties.Property("unchanged content saves iff interval elapsed", prop.ForAll(
		func(contentLen int, elapsedMs int) bool {
			content := strings.Repeat("x", contentLen) + "."
			now := time.Now()
			state := &TrackerState{
				LastSaveTime:     now.Add(-time.Duration(elapsedMs) * time.Millisecond),
				LastSavedContent: content,
			}
			got := p.ShouldSave(state, content, now)
			want := time.Duration(elapsedMs)*time.Millisecond >= 10*time.Second
			return got == want
		},
		gen.IntRange(0, 200),
		gen.IntRange(0, 30000),
	))

	properties.TestingRun(t)
}
