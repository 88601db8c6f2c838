package dao

import (
	"context"
	"time"

	"github.com/nexdoc/doc-persist-service/internal/domain"
	"github.com/nexdoc/doc-persist-service/internal/model"
	"github.com/nexdoc/doc-persist-service/pkg/timex"

	"gorm.io/gorm"
)

// documentRepository 实现 domain.DocumentRepository 接口
type documentRepository struct {
	dao *Dao
}

// NewDocumentRepository 创建 DocumentRepository 实例
func NewDocumentRepository(dao *Dao) domain.DocumentRepository {
	return &documentRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *documentRepository) toDomain(m *model.Document) *domain.Document {
	if m == nil {
		return nil
	}
	return &domain.Document{
		ID:            m.ID,
		Title:         m.Title,
		Content:       m.Content,
		Version:       m.Version,
		OwnerUID:      m.OwnerUID,
		LastEditorUID: m.LastEditorUID,
		Status:        domain.DocumentStatus(m.Status),
		CreatedAt:     m.CreatedAt.Time(),
		UpdatedAt:     m.UpdatedAt.Time(),
	}
}

// GetByID 根据ID获取文档
func (r *documentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	var m model.Document
	if err := r.dao.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建文档
func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	now := time.Now()
	version := doc.Version
	if version <= 0 {
		version = 1
	}
	status := doc.Status
	if status == "" {
		status = domain.DocumentStatusActive
	}
	m := &model.Document{
		Title:         doc.Title,
		Content:       doc.Content,
		Version:       version,
		OwnerUID:      doc.OwnerUID,
		LastEditorUID: doc.LastEditorUID,
		Status:        string(status),
		CreatedAt:     timex.Time(now),
		UpdatedAt:     timex.Time(now),
	}
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// CommitContentUpdate 原子提交内容覆盖与版本归档
// archived 非 nil 时，版本行插入与文档更新处于同一事务，任一失败则整体回滚
func (r *documentRepository) CommitContentUpdate(ctx context.Context, doc *domain.Document, archived *domain.DocumentVersion) error {
	return r.dao.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if archived != nil {
			vm := &model.DocumentVersion{
				DocumentID:        archived.DocumentID,
				VersionNumber:     archived.VersionNumber,
				Title:             archived.Title,
				Content:           archived.Content,
				ChangedBy:         archived.ChangedBy,
				ChangeDescription: archived.ChangeDescription,
				CreatedAt:         timex.Now(),
			}
			if err := tx.Create(vm).Error; err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"content":         doc.Content,
			"version":         doc.Version,
			"last_editor_uid": doc.LastEditorUID,
			"updated_at":      timex.Time(doc.UpdatedAt),
		}
		res := tx.Model(&model.Document{}).Where("id = ?", doc.ID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// 确保 documentRepository 实现了 domain.DocumentRepository 接口
var _ domain.DocumentRepository = (*documentRepository)(nil)
