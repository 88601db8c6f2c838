// Package domain 定义领域模型和接口
package domain

import "time"

// DocumentStatus 文档状态
type DocumentStatus string

const (
	DocumentStatusActive   DocumentStatus = "active"
	DocumentStatusArchived DocumentStatus = "archived"
	DocumentStatusDeleted  DocumentStatus = "deleted"
)

// OperationType 细粒度编辑操作类型
type OperationType string

const (
	OperationTypeInsert OperationType = "insert"
	OperationTypeDelete OperationType = "delete"
)

// Document 文档领域模型
// version 从 1 开始，只增不减
type Document struct {
	ID            int64
	Title         string
	Content       string
	Version       int64
	OwnerUID      int64
	LastEditorUID int64
	Status        DocumentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DocumentVersion 文档版本快照领域模型
// VersionNumber 是被覆盖前的版本号，行 n 保存的是文档处于版本 n 时的内容
type DocumentVersion struct {
	ID                int64
	DocumentID        int64
	VersionNumber     int64
	Title             string
	Content           string
	ChangedBy         int64
	ChangeDescription string
	CreatedAt         time.Time
}

// DocumentOperation 细粒度编辑操作领域模型
type DocumentOperation struct {
	ID             int64
	DocumentID     int64
	UID            int64
	OperationID    string
	SequenceNumber int64
	OperationType  OperationType
	StartPosition  int
	EndPosition    int
	Content        string
	CreatedAt      time.Time
}

// DocumentStatistics 文档统计信息
type DocumentStatistics struct {
	DocumentID     int64     `json:"documentId"`
	Title          string    `json:"title"`
	CurrentVersion int64     `json:"currentVersion"`
	ContentLength  int       `json:"contentLength"`
	VersionCount   int64     `json:"versionCount"`
	OperationCount int64     `json:"operationCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastEditorUID  int64     `json:"lastEditorUid"`
}
