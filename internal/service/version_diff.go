package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nexdoc/doc-persist-service/pkg/code"
	"github.com/nexdoc/doc-persist-service/pkg/logger"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DiffSegment 差异片段
type DiffSegment struct {
	Type string `json:"type"` // equal / insert / delete
	Text string `json:"text"`
}

// VersionDiffResult 两个版本之间的差异
type VersionDiffResult struct {
	DocumentID  int64         `json:"documentId"`
	FromVersion int64         `json:"fromVersion"`
	ToVersion   int64         `json:"toVersion"`
	Segments    []DiffSegment `json:"segments"`
}

// VersionDiff 计算 fromVersion 到 toVersion 的行级差异
// toVersion 等于文档当前版本号时与在线内容比较
func (s *storageService) VersionDiff(ctx context.Context, documentID, fromVersion, toVersion int64) (*VersionDiffResult, error) {
	fromContent, err := s.versionContent(ctx, documentID, fromVersion)
	if err != nil {
		return nil, err
	}
	toContent, err := s.versionContent(ctx, documentID, toVersion)
	if err != nil {
		return nil, err
	}

	segments, err := diffSegments(fromContent, toContent)
	if err != nil {
		s.logger.Error("version diff failed",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Error(err))
		return nil, code.ErrorDiffFailed.WithDetails(err.Error())
	}

	return &VersionDiffResult{
		DocumentID:  documentID,
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		Segments:    segments,
	}, nil
}

// versionContent 取指定版本号对应的内容
// 版本号等于当前版本时返回文档在线内容，否则读取归档行
func (s *storageService) versionContent(ctx context.Context, documentID, versionNumber int64) (string, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", code.ErrorDocumentNotFound
		}
		return "", code.ErrorDBQuery.WithDetails(err.Error())
	}

	if versionNumber == doc.Version {
		return doc.Content, nil
	}

	v, err := s.verRepo.GetByNumber(ctx, documentID, versionNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", code.ErrorVersionNotFound
		}
		return "", code.ErrorDBQuery.WithDetails(err.Error())
	}
	return v.Content, nil
}

// diffSegments 基于行的差异计算
// diffmatchpatch 对非法 UTF-8 输入可能 panic，这里兜底恢复
func diffSegments(from, to string) (segments []DiffSegment, err error) {
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = errors.New("diff computation aborted")
		}
	}()

	from = strings.ToValidUTF8(from, "�")
	to = strings.ToValidUTF8(to, "�")

	dmp := diffmatchpatch.New()
	fromRunes, toRunes, lines := dmp.DiffLinesToRunes(from, to)
	diffs := dmp.DiffMainRunes(fromRunes, toRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	for _, d := range diffs {
		seg := DiffSegment{Text: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			seg.Type = "insert"
		case diffmatchpatch.DiffDelete:
			seg.Type = "delete"
		default:
			seg.Type = "equal"
		}
		segments = append(segments, seg)
	}
	return segments, nil
}
