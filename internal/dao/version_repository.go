package dao

import (
	"context"

	"github.com/nexdoc/doc-persist-service/internal/domain"
	"github.com/nexdoc/doc-persist-service/internal/model"
	"github.com/nexdoc/doc-persist-service/pkg/timex"
)

// versionRepository 实现 domain.VersionRepository 接口
type versionRepository struct {
	dao *Dao
}

// NewVersionRepository 创建 VersionRepository 实例
func NewVersionRepository(dao *Dao) domain.VersionRepository {
	return &versionRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *versionRepository) toDomain(m *model.DocumentVersion) *domain.DocumentVersion {
	if m == nil {
		return nil
	}
	return &domain.DocumentVersion{
		ID:                m.ID,
		DocumentID:        m.DocumentID,
		VersionNumber:     m.VersionNumber,
		Title:             m.Title,
		Content:           m.Content,
		ChangedBy:         m.ChangedBy,
		ChangeDescription: m.ChangeDescription,
		CreatedAt:         m.CreatedAt.Time(),
	}
}

// Create 追加版本快照
func (r *versionRepository) Create(ctx context.Context, version *domain.DocumentVersion) (*domain.DocumentVersion, error) {
	m := &model.DocumentVersion{
		DocumentID:        version.DocumentID,
		VersionNumber:     version.VersionNumber,
		Title:             version.Title,
		Content:           version.Content,
		ChangedBy:         version.ChangedBy,
		ChangeDescription: version.ChangeDescription,
		CreatedAt:         timex.Now(),
	}
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// GetByNumber 获取指定版本号的快照
// 同一版本号可能有多行（手动快照 + 自动归档），取最新一行
func (r *versionRepository) GetByNumber(ctx context.Context, documentID, versionNumber int64) (*domain.DocumentVersion, error) {
	var m model.DocumentVersion
	err := r.dao.db.WithContext(ctx).
		Where("document_id = ? AND version_number = ?", documentID, versionNumber).
		Order("id DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// ListByDocumentID 按版本号倒序获取版本列表
func (r *versionRepository) ListByDocumentID(ctx context.Context, documentID int64, limit, offset int) ([]*domain.DocumentVersion, error) {
	var modelList []*model.DocumentVersion
	err := r.dao.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("version_number DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var results []*domain.DocumentVersion
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

// CountByDocumentID 统计版本数量
func (r *versionRepository) CountByDocumentID(ctx context.Context, documentID int64) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.DocumentVersion{}).
		Where("document_id = ?", documentID).
		Count(&count).Error
	return count, err
}

// 确保 versionRepository 实现了 domain.VersionRepository 接口
var _ domain.VersionRepository = (*versionRepository)(nil)
