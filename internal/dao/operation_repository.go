package dao

import (
	"context"

	"github.com/nexdoc/doc-persist-service/internal/domain"
	"github.com/nexdoc/doc-persist-service/internal/model"
	"github.com/nexdoc/doc-persist-service/pkg/timex"
)

// operationRepository 实现 domain.OperationRepository 接口
type operationRepository struct {
	dao *Dao
}

// NewOperationRepository 创建 OperationRepository 实例
func NewOperationRepository(dao *Dao) domain.OperationRepository {
	return &operationRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *operationRepository) toDomain(m *model.DocumentOperation) *domain.DocumentOperation {
	if m == nil {
		return nil
	}
	return &domain.DocumentOperation{
		ID:             m.ID,
		DocumentID:     m.DocumentID,
		UID:            m.UID,
		OperationID:    m.OperationID,
		SequenceNumber: m.SequenceNumber,
		OperationType:  domain.OperationType(m.OperationType),
		StartPosition:  m.StartPosition,
		EndPosition:    m.EndPosition,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.Time(),
	}
}

// Create 追加操作记录
func (r *operationRepository) Create(ctx context.Context, op *domain.DocumentOperation) (*domain.DocumentOperation, error) {
	m := &model.DocumentOperation{
		DocumentID:     op.DocumentID,
		UID:            op.UID,
		OperationID:    op.OperationID,
		SequenceNumber: op.SequenceNumber,
		OperationType:  string(op.OperationType),
		StartPosition:  op.StartPosition,
		EndPosition:    op.EndPosition,
		Content:        op.Content,
		CreatedAt:      timex.Now(),
	}
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// ListByDocumentID 按创建时间倒序获取操作记录
// 创建时间相同的按主键倒序，保证追加顺序稳定
func (r *operationRepository) ListByDocumentID(ctx context.Context, documentID int64, limit, offset int) ([]*domain.DocumentOperation, error) {
	var modelList []*model.DocumentOperation
	err := r.dao.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var results []*domain.DocumentOperation
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

// CountByDocumentID 统计操作数量
func (r *operationRepository) CountByDocumentID(ctx context.Context, documentID int64) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.DocumentOperation{}).
		Where("document_id = ?", documentID).
		Count(&count).Error
	return count, err
}

// DeleteBeyondKeepCount 删除保留窗口之外的旧操作记录
// 先取出窗口之外的行ID再批量删除，与并发追加竞争时允许多保留一条
func (r *operationRepository) DeleteBeyondKeepCount(ctx context.Context, documentID int64, keepCount int) (int64, error) {
	if keepCount < 0 {
		keepCount = 0
	}

	var toDeleteIDs []int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.DocumentOperation{}).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(keepCount).
		Limit(-1).
		Pluck("id", &toDeleteIDs).Error
	if err != nil {
		return 0, err
	}

	if len(toDeleteIDs) == 0 {
		return 0, nil
	}

	res := r.dao.db.WithContext(ctx).
		Where("id IN ?", toDeleteIDs).
		Delete(&model.DocumentOperation{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListDocumentIDsExceeding 获取操作数超过 keepCount 的文档ID列表
func (r *operationRepository) ListDocumentIDsExceeding(ctx context.Context, keepCount int) ([]int64, error) {
	var documentIDs []int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.DocumentOperation{}).
		Select("document_id").
		Group("document_id").
		Having("COUNT(id) > ?", keepCount).
		Pluck("document_id", &documentIDs).Error
	if err != nil {
		return nil, err
	}
	return documentIDs, nil
}

// 确保 operationRepository 实现了 domain.OperationRepository 接口
var _ domain.OperationRepository = (*operationRepository)(nil)
