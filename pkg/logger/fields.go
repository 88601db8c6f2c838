package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldDocumentID 文档 ID 字段
	FieldDocumentID = "documentId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldVersion 版本号字段
	FieldVersion = "version"

	// FieldOperationID 操作 ID 字段
	FieldOperationID = "operationId"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldContentLength 内容长度字段
	FieldContentLength = "contentLength"

	// FieldQueueDepth 队列深度字段
	FieldQueueDepth = "queueDepth"
)
