package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nexdoc/doc-persist-service/internal/domain"
	"github.com/nexdoc/doc-persist-service/pkg/code"
	"github.com/nexdoc/doc-persist-service/pkg/logger"
	"github.com/nexdoc/doc-persist-service/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	// DefaultVersionLimit 版本列表默认条数
	DefaultVersionLimit = 10
	// DefaultOperationLimit 操作列表默认条数
	DefaultOperationLimit = 50
	// DefaultOperationKeepCount 操作日志默认保留条数
	DefaultOperationKeepCount = 100
)

// OperationInput 随保存请求提交的细粒度编辑操作
type OperationInput struct {
	ID       string `json:"id"`
	Sequence int64  `json:"sequence"`
	Type     string `json:"type"`
	Position int    `json:"position"`
	Content  string `json:"content"`
}

// saveRequest 保存队列中的一项，nil 指针作为停止哨兵
type saveRequest struct {
	documentID int64
	uid        int64
	content    string
	operation  *OperationInput
}

// DocumentStorageService 文档持久化服务接口
type DocumentStorageService interface {
	// SubmitSave 提交保存请求，非阻塞入队
	SubmitSave(documentID, uid int64, content string, op *OperationInput) error

	// GetVersions 获取版本历史，存储失败时返回空列表
	GetVersions(ctx context.Context, documentID int64, limit, offset int) []*domain.DocumentVersion

	// GetOperations 获取操作记录，存储失败时返回空列表
	GetOperations(ctx context.Context, documentID int64, limit, offset int) []*domain.DocumentOperation

	// CreateSnapshot 为当前内容创建版本快照，不推进版本计数
	CreateSnapshot(ctx context.Context, documentID, uid int64, description string) error

	// RestoreVersion 恢复到指定版本，版本计数只增不减
	RestoreVersion(ctx context.Context, documentID, versionNumber, uid int64) bool

	// GetStatistics 获取文档统计信息，文档不存在时返回 nil
	GetStatistics(ctx context.Context, documentID int64) *domain.DocumentStatistics

	// VersionDiff 计算两个版本之间的差异
	VersionDiff(ctx context.Context, documentID, fromVersion, toVersion int64) (*VersionDiffResult, error)

	// CleanupOperations 清理操作日志，返回删除条数
	CleanupOperations(ctx context.Context, documentID int64, keepCount int) (int64, error)

	// QueueDepth 当前队列深度
	QueueDepth() int

	// Shutdown 发送停止哨兵并等待队列排空
	Shutdown(ctx context.Context) error
}

// storageService 单消费者实现
// worker 协程在构造时启动，tracker 只由 worker 读写
type storageService struct {
	docRepo domain.DocumentRepository
	verRepo domain.VersionRepository
	opRepo  domain.OperationRepository
	policy  *SavePolicy
	logger  *zap.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*saveRequest
	stopped bool

	tracker    map[int64]*TrackerState
	workerDone chan struct{}

	statsGroup singleflight.Group
}

// NewDocumentStorageService 创建文档持久化服务并启动 worker
func NewDocumentStorageService(
	docRepo domain.DocumentRepository,
	verRepo domain.VersionRepository,
	opRepo domain.OperationRepository,
	policyCfg SavePolicyConfig,
	lg *zap.Logger,
) DocumentStorageService {
	if lg == nil {
		lg = zap.NewNop()
	}
	s := &storageService{
		docRepo:    docRepo,
		verRepo:    verRepo,
		opRepo:     opRepo,
		policy:     NewSavePolicy(policyCfg),
		logger:     lg,
		tracker:    make(map[int64]*TrackerState),
		workerDone: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.worker()
	return s
}

// SubmitSave 提交保存请求
func (s *storageService) SubmitSave(documentID, uid int64, content string, op *OperationInput) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return code.ErrorServiceStopped
	}
	s.queue = append(s.queue, &saveRequest{
		documentID: documentID,
		uid:        uid,
		content:    content,
		operation:  op,
	})
	depth := len(s.queue)
	s.cond.Signal()
	s.mu.Unlock()

	metrics.SaveRequestsTotal.Inc()
	metrics.QueueDepth.Set(float64(depth))
	return nil
}

// QueueDepth 当前队列深度
func (s *storageService) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Shutdown 追加停止哨兵并等待 worker 排空退出
// FIFO 保证哨兵之前入队的请求全部处理完毕
func (s *storageService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		<-s.workerDone
		return nil
	}
	s.stopped = true
	s.queue = append(s.queue, nil)
	depth := len(s.queue) - 1
	s.cond.Signal()
	s.mu.Unlock()

	s.logger.Info("shutdown requested, draining queue",
		zap.Int(logger.FieldQueueDepth, depth))

	select {
	case <-s.workerDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker 单消费者循环，顺序处理保存请求
func (s *storageService) worker() {
	defer close(s.workerDone)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			s.cond.Wait()
		}
		req := s.queue[0]
		s.queue = s.queue[1:]
		depth := len(s.queue)
		s.mu.Unlock()

		metrics.QueueDepth.Set(float64(depth))

		if req == nil {
			s.logger.Info("storage worker stopped")
			return
		}

		s.process(req)
	}
}

// process 处理单个保存请求，失败只影响本请求
func (s *storageService) process(req *saveRequest) {
	// worker 不继承请求上下文，进行中的存储调用在关闭时允许完成
	ctx := context.Background()
	now := time.Now()

	state := s.tracker[req.documentID]
	if s.policy.ShouldSave(state, req.content, now) {
		if s.flushContent(ctx, req, now) {
			s.tracker[req.documentID] = &TrackerState{
				LastSaveTime:     now,
				LastSavedContent: req.content,
			}
		}
	} else {
		metrics.PolicySkipsTotal.Inc()
		s.logger.Debug("save skipped by policy",
			zap.Int64(logger.FieldDocumentID, req.documentID),
			zap.Int(logger.FieldContentLength, len(req.content)))
	}

	// 操作日志独立于内容刷新
	if req.operation != nil {
		s.appendOperation(ctx, req)
	}
}

// flushContent 执行一次内容刷新，返回是否实际落库
func (s *storageService) flushContent(ctx context.Context, req *saveRequest, now time.Time) bool {
	start := time.Now()

	doc, err := s.docRepo.GetByID(ctx, req.documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("document not found, save dropped",
				zap.Int64(logger.FieldDocumentID, req.documentID))
		} else {
			metrics.FlushFailuresTotal.Inc()
			s.logger.Error("document fetch failed, save dropped",
				zap.Int64(logger.FieldDocumentID, req.documentID),
				zap.Error(err))
		}
		return false
	}

	// 权威去重点：存量内容与入队内容一致则不产生新版本
	if doc.Content == req.content {
		s.logger.Debug("content unchanged, flush skipped",
			zap.Int64(logger.FieldDocumentID, req.documentID),
			zap.Int64(logger.FieldVersion, doc.Version))
		return false
	}

	changedBy := doc.LastEditorUID
	if changedBy == 0 {
		changedBy = doc.OwnerUID
	}
	archived := &domain.DocumentVersion{
		DocumentID:        doc.ID,
		VersionNumber:     doc.Version,
		Title:             doc.Title,
		Content:           doc.Content,
		ChangedBy:         changedBy,
		ChangeDescription: fmt.Sprintf("autosave version %d", doc.Version),
	}

	doc.Content = req.content
	doc.Version++
	doc.LastEditorUID = req.uid
	doc.UpdatedAt = now

	if err := s.docRepo.CommitContentUpdate(ctx, doc, archived); err != nil {
		metrics.FlushFailuresTotal.Inc()
		s.logger.Error("content flush failed, request dropped",
			zap.Int64(logger.FieldDocumentID, req.documentID),
			zap.Int64(logger.FieldVersion, doc.Version),
			zap.Error(err))
		return false
	}

	metrics.FlushesTotal.Inc()
	metrics.FlushDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("content flushed",
		zap.Int64(logger.FieldDocumentID, req.documentID),
		zap.Int64(logger.FieldUID, req.uid),
		zap.Int64(logger.FieldVersion, doc.Version),
		zap.Int(logger.FieldContentLength, len(req.content)),
		zap.Duration(logger.FieldDuration, time.Since(start)))
	return true
}

// appendOperation 追加操作记录，失败只记录日志
func (s *storageService) appendOperation(ctx context.Context, req *saveRequest) {
	in := req.operation

	opID := in.ID
	if opID == "" {
		opID = uuid.NewString()
	}

	opType := domain.OperationTypeInsert
	endPos := in.Position + utf8.RuneCountInString(in.Content)
	if in.Type == string(domain.OperationTypeDelete) {
		opType = domain.OperationTypeDelete
		endPos = in.Position
	}

	_, err := s.opRepo.Create(ctx, &domain.DocumentOperation{
		DocumentID:     req.documentID,
		UID:            req.uid,
		OperationID:    opID,
		SequenceNumber: in.Sequence,
		OperationType:  opType,
		StartPosition:  in.Position,
		EndPosition:    endPos,
		Content:        in.Content,
	})
	if err != nil {
		s.logger.Error("operation append failed",
			zap.Int64(logger.FieldDocumentID, req.documentID),
			zap.String(logger.FieldOperationID, opID),
			zap.Error(err))
		return
	}

	metrics.OperationsAppendedTotal.Inc()
}

// GetVersions 获取版本历史
func (s *storageService) GetVersions(ctx context.Context, documentID int64, limit, offset int) []*domain.DocumentVersion {
	if limit <= 0 {
		limit = DefaultVersionLimit
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.verRepo.ListByDocumentID(ctx, documentID, limit, offset)
	if err != nil {
		s.logger.Error("version list query failed",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Error(err))
		return []*domain.DocumentVersion{}
	}
	if list == nil {
		list = []*domain.DocumentVersion{}
	}
	return list
}

// GetOperations 获取操作记录
func (s *storageService) GetOperations(ctx context.Context, documentID int64, limit, offset int) []*domain.DocumentOperation {
	if limit <= 0 {
		limit = DefaultOperationLimit
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.opRepo.ListByDocumentID(ctx, documentID, limit, offset)
	if err != nil {
		s.logger.Error("operation list query failed",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Error(err))
		return []*domain.DocumentOperation{}
	}
	if list == nil {
		list = []*domain.DocumentOperation{}
	}
	return list
}

// CreateSnapshot 为当前内容创建命名检查点，不推进版本计数
func (s *storageService) CreateSnapshot(ctx context.Context, documentID, uid int64, description string) error {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code.ErrorDocumentNotFound
		}
		return code.ErrorDBQuery.WithDetails(err.Error())
	}

	if description == "" {
		description = fmt.Sprintf("manual snapshot version %d", doc.Version)
	}

	_, err = s.verRepo.Create(ctx, &domain.DocumentVersion{
		DocumentID:        doc.ID,
		VersionNumber:     doc.Version,
		Title:             doc.Title,
		Content:           doc.Content,
		ChangedBy:         uid,
		ChangeDescription: description,
	})
	if err != nil {
		s.logger.Error("snapshot create failed",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Int64(logger.FieldVersion, doc.Version),
			zap.Error(err))
		return code.ErrorSnapshotFailed.WithDetails(err.Error())
	}

	s.logger.Info("snapshot created",
		zap.Int64(logger.FieldDocumentID, documentID),
		zap.Int64(logger.FieldVersion, doc.Version))
	return nil
}

// RestoreVersion 恢复到历史版本
// 当前内容先归档，版本计数在恢复后继续推进，绝不回退
func (s *storageService) RestoreVersion(ctx context.Context, documentID, versionNumber, uid int64) bool {
	target, err := s.verRepo.GetByNumber(ctx, documentID, versionNumber)
	if err != nil {
		s.logger.Warn("restore target version not found",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Int64(logger.FieldVersion, versionNumber))
		return false
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		s.logger.Warn("restore document not found",
			zap.Int64(logger.FieldDocumentID, documentID))
		return false
	}

	changedBy := doc.LastEditorUID
	if changedBy == 0 {
		changedBy = doc.OwnerUID
	}
	archived := &domain.DocumentVersion{
		DocumentID:        doc.ID,
		VersionNumber:     doc.Version,
		Title:             doc.Title,
		Content:           doc.Content,
		ChangedBy:         changedBy,
		ChangeDescription: fmt.Sprintf("pre-restore version %d", doc.Version),
	}

	doc.Content = target.Content
	doc.Version++
	doc.LastEditorUID = uid
	doc.UpdatedAt = time.Now()

	if err := s.docRepo.CommitContentUpdate(ctx, doc, archived); err != nil {
		s.logger.Error("version restore failed",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Int64(logger.FieldVersion, versionNumber),
			zap.Error(err))
		return false
	}

	s.logger.Info("version restored",
		zap.Int64(logger.FieldDocumentID, documentID),
		zap.Int64(logger.FieldVersion, versionNumber))
	return true
}

// GetStatistics 获取文档统计信息
// 同一文档的并发统计查询合并为一次
func (s *storageService) GetStatistics(ctx context.Context, documentID int64) *domain.DocumentStatistics {
	v, err, _ := s.statsGroup.Do(strconv.FormatInt(documentID, 10), func() (interface{}, error) {
		return s.loadStatistics(ctx, documentID), nil
	})
	if err != nil {
		return nil
	}
	stats, _ := v.(*domain.DocumentStatistics)
	return stats
}

func (s *storageService) loadStatistics(ctx context.Context, documentID int64) *domain.DocumentStatistics {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("statistics document fetch failed",
				zap.Int64(logger.FieldDocumentID, documentID),
				zap.Error(err))
		}
		return nil
	}

	versionCount, err := s.verRepo.CountByDocumentID(ctx, documentID)
	if err != nil {
		s.logger.Error("statistics version count failed",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Error(err))
	}
	operationCount, err := s.opRepo.CountByDocumentID(ctx, documentID)
	if err != nil {
		s.logger.Error("statistics operation count failed",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Error(err))
	}

	return &domain.DocumentStatistics{
		DocumentID:     doc.ID,
		Title:          doc.Title,
		CurrentVersion: doc.Version,
		ContentLength:  utf8.RuneCountInString(doc.Content),
		VersionCount:   versionCount,
		OperationCount: operationCount,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		LastEditorUID:  doc.LastEditorUID,
	}
}

// CleanupOperations 清理操作日志，保留最近 keepCount 条
func (s *storageService) CleanupOperations(ctx context.Context, documentID int64, keepCount int) (int64, error) {
	if keepCount <= 0 {
		keepCount = DefaultOperationKeepCount
	}
	deleted, err := s.opRepo.DeleteBeyondKeepCount(ctx, documentID, keepCount)
	if err != nil {
		s.logger.Error("operation cleanup failed",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Error(err))
		return 0, code.ErrorCleanupFailed.WithDetails(err.Error())
	}
	if deleted > 0 {
		s.logger.Info("operations pruned",
			zap.Int64(logger.FieldDocumentID, documentID),
			zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

// 确保 storageService 实现了 DocumentStorageService 接口
var _ DocumentStorageService = (*storageService)(nil)
