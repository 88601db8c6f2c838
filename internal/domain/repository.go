package domain

import "context"

// DocumentRepository 文档仓库接口
type DocumentRepository interface {
	// GetByID 获取文档，不存在时返回 gorm.ErrRecordNotFound
	GetByID(ctx context.Context, id int64) (*Document, error)

	// Create 创建文档
	Create(ctx context.Context, doc *Document) (*Document, error)

	// CommitContentUpdate 原子提交：归档旧内容为版本行并覆盖文档内容、推进版本计数
	// archived 为 nil 时只更新文档本身
	CommitContentUpdate(ctx context.Context, doc *Document, archived *DocumentVersion) error
}

// VersionRepository 版本链仓库接口
type VersionRepository interface {
	// Create 追加版本快照
	Create(ctx context.Context, version *DocumentVersion) (*DocumentVersion, error)

	// GetByNumber 获取指定版本号的快照，不存在时返回 gorm.ErrRecordNotFound
	GetByNumber(ctx context.Context, documentID, versionNumber int64) (*DocumentVersion, error)

	// ListByDocumentID 按版本号倒序获取版本列表
	ListByDocumentID(ctx context.Context, documentID int64, limit, offset int) ([]*DocumentVersion, error)

	// CountByDocumentID 统计版本数量
	CountByDocumentID(ctx context.Context, documentID int64) (int64, error)
}

// OperationRepository 操作日志仓库接口
type OperationRepository interface {
	// Create 追加操作记录
	Create(ctx context.Context, op *DocumentOperation) (*DocumentOperation, error)

	// ListByDocumentID 按创建时间倒序获取操作记录
	ListByDocumentID(ctx context.Context, documentID int64, limit, offset int) ([]*DocumentOperation, error)

	// CountByDocumentID 统计操作数量
	CountByDocumentID(ctx context.Context, documentID int64) (int64, error)

	// DeleteBeyondKeepCount 删除保留窗口之外的旧操作记录，返回删除条数
	// 只针对调用时刻窗口之外的行，与并发追加竞争时允许多保留一条
	DeleteBeyondKeepCount(ctx context.Context, documentID int64, keepCount int) (int64, error)

	// ListDocumentIDsExceeding 获取操作数超过 keepCount 的文档ID列表
	ListDocumentIDsExceeding(ctx context.Context, keepCount int) ([]int64, error)
}
