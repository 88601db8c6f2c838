package model

import "github.com/nexdoc/doc-persist-service/pkg/timex"

const TableNameDocument = "document"

// Document mapped from table <document>
type Document struct {
	ID            int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	Title         string     `gorm:"column:title;not null" json:"title" form:"title"`
	Content       string     `gorm:"column:content" json:"content" form:"content"`
	Version       int64      `gorm:"column:version;not null;default:1" json:"version" form:"version"`
	OwnerUID      int64      `gorm:"column:owner_uid;not null;index:idx_document_owner" json:"ownerUid" form:"ownerUid"`
	LastEditorUID int64      `gorm:"column:last_editor_uid" json:"lastEditorUid" form:"lastEditorUid"`
	Status        string     `gorm:"column:status;not null;default:active" json:"status" form:"status"`
	CreatedAt     timex.Time `gorm:"column:created_at;type:datetime" json:"createdAt" form:"createdAt"`
	UpdatedAt     timex.Time `gorm:"column:updated_at;type:datetime" json:"updatedAt" form:"updatedAt"`
}

// TableName Document's table name
func (*Document) TableName() string {
	return TableNameDocument
}

const TableNameDocumentVersion = "document_version"

// DocumentVersion mapped from table <document_version>
// 追加写入，除显式清理外不修改不删除
type DocumentVersion struct {
	ID                int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	// 同一版本号可出现多行：手动快照不推进版本计数，随后的自动保存
	// 会以相同版本号归档，因此是普通索引而非唯一索引
	DocumentID        int64      `gorm:"column:document_id;not null;index:idx_version_doc_number,priority:1" json:"documentId" form:"documentId"`
	VersionNumber     int64      `gorm:"column:version_number;not null;index:idx_version_doc_number,priority:2" json:"versionNumber" form:"versionNumber"`
	Title             string     `gorm:"column:title" json:"title" form:"title"`
	Content           string     `gorm:"column:content" json:"content" form:"content"`
	ChangedBy         int64      `gorm:"column:changed_by" json:"changedBy" form:"changedBy"`
	ChangeDescription string     `gorm:"column:change_description" json:"changeDescription" form:"changeDescription"`
	CreatedAt         timex.Time `gorm:"column:created_at;type:datetime" json:"createdAt" form:"createdAt"`
}

// TableName DocumentVersion's table name
func (*DocumentVersion) TableName() string {
	return TableNameDocumentVersion
}

const TableNameDocumentOperation = "document_operation"

// DocumentOperation mapped from table <document_operation>
type DocumentOperation struct {
	ID             int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	DocumentID     int64      `gorm:"column:document_id;not null;index:idx_operation_doc" json:"documentId" form:"documentId"`
	UID            int64      `gorm:"column:uid;not null" json:"uid" form:"uid"`
	OperationID    string     `gorm:"column:operation_id;not null;uniqueIndex:idx_operation_id" json:"operationId" form:"operationId"`
	SequenceNumber int64      `gorm:"column:sequence_number" json:"sequenceNumber" form:"sequenceNumber"`
	OperationType  string     `gorm:"column:operation_type;not null" json:"operationType" form:"operationType"`
	StartPosition  int        `gorm:"column:start_position" json:"startPosition" form:"startPosition"`
	EndPosition    int        `gorm:"column:end_position" json:"endPosition" form:"endPosition"`
	Content        string     `gorm:"column:content" json:"content" form:"content"`
	CreatedAt      timex.Time `gorm:"column:created_at;type:datetime;index:idx_operation_created" json:"createdAt" form:"createdAt"`
}

// TableName DocumentOperation's table name
func (*DocumentOperation) TableName() string {
	return TableNameDocumentOperation
}
