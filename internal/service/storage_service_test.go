package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nexdoc/doc-persist-service/internal/dao"
	"github.com/nexdoc/doc-persist-service/internal/domain"
	"github.com/nexdoc/doc-persist-service/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type testEnv struct {
	docRepo domain.DocumentRepository
	verRepo domain.VersionRepository
	opRepo  domain.OperationRepository
	svc     DocumentStorageService
}

// newTestEnv 创建内存库与存储服务
func newTestEnv(t *testing.T, policyCfg SavePolicyConfig) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db, ""))

	d := dao.New(db, nil)
	env := &testEnv{
		docRepo: dao.NewDocumentRepository(d),
		verRepo: dao.NewVersionRepository(d),
		opRepo:  dao.NewOperationRepository(d),
	}
	env.svc = NewDocumentStorageService(env.docRepo, env.verRepo, env.opRepo, policyCfg, nil)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = env.svc.Shutdown(ctx)
	})
	return env
}

func (e *testEnv) createDocument(t *testing.T, content string) *domain.Document {
	t.Helper()
	doc, err := e.docRepo.Create(context.Background(), &domain.Document{
		Title:    "test doc",
		Content:  content,
		OwnerUID: 1,
	})
	require.NoError(t, err)
	return doc
}

// waitDocVersion 轮询等待文档推进到指定版本
func (e *testEnv) waitDocVersion(t *testing.T, documentID, version int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		doc, err := e.docRepo.GetByID(context.Background(), documentID)
		return err == nil && doc.Version == version
	}, 3*time.Second, 10*time.Millisecond)
}

func TestStorageServiceVersionChain(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "initial content")
	initial := doc.Version

	// 每次内容长度变化都超过阈值，长度条件必定触发保存
	const n = 5
	for i := 1; i <= n; i++ {
		content := fmt.Sprintf("revision %d %s", i, strings.Repeat("x", 20*i))
		require.NoError(t, env.svc.SubmitSave(doc.ID, 2, content, nil))
	}

	env.waitDocVersion(t, doc.ID, initial+n)

	// 版本链为 {initial .. initial+n-1}，版本号倒序
	versions := env.svc.GetVersions(context.Background(), doc.ID, 100, 0)
	require.Len(t, versions, n)
	for i, v := range versions {
		assert.Equal(t, initial+int64(n-1-i), v.VersionNumber)
	}

	got, err := env.docRepo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, initial+n, got.Version)
}

func TestStorageServicePolicySkip(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "ab")

	// 首次保存必定落库
	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "abc", nil))
	env.waitDocVersion(t, doc.ID, doc.Version+1)

	// 变化 8 字符 < 10，无句子结束符，间隔未到 → 跳过
	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "abcdefghijk", nil))

	// 追加后缀以句号结尾 → 保存
	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "abcdefgh.", nil))
	env.waitDocVersion(t, doc.ID, doc.Version+2)

	got, err := env.docRepo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh.", got.Content)

	// 被跳过的内容从未落库，版本链只有两行
	versions := env.svc.GetVersions(context.Background(), doc.ID, 100, 0)
	require.Len(t, versions, 2)
	assert.Equal(t, "abc", versions[0].Content)
	assert.Equal(t, "ab", versions[1].Content)
}

func TestStorageServiceDuplicateSuppression(t *testing.T) {
	// 极短间隔使时间条件恒触发，去重点在 worker
	cfg := DefaultSavePolicyConfig()
	cfg.SaveInterval = time.Nanosecond
	env := newTestEnv(t, cfg)

	doc := env.createDocument(t, "old")

	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "same content", nil))
	env.waitDocVersion(t, doc.ID, doc.Version+1)

	// 相同内容重复提交，时间条件放行但存量一致，不产生新版本
	for i := 0; i < 3; i++ {
		require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "same content", nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.svc.Shutdown(ctx))

	got, err := env.docRepo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Version+1, got.Version)

	versions := env.svc.GetVersions(context.Background(), doc.ID, 100, 0)
	assert.Len(t, versions, 1)
}

func TestStorageServiceOperationAppendIndependent(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "ab")

	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "abc", nil))
	env.waitDocVersion(t, doc.ID, doc.Version+1)

	// 策略跳过内容刷新，操作记录仍然追加
	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "abcd", &OperationInput{
		ID:       "op-独立",
		Type:     "insert",
		Position: 3,
		Content:  "d",
	}))

	require.Eventually(t, func() bool {
		return len(env.svc.GetOperations(context.Background(), doc.ID, 10, 0)) == 1
	}, 3*time.Second, 10*time.Millisecond)

	ops := env.svc.GetOperations(context.Background(), doc.ID, 10, 0)
	require.Len(t, ops, 1)
	assert.Equal(t, "op-独立", ops[0].OperationID)
	assert.Equal(t, domain.OperationTypeInsert, ops[0].OperationType)
	assert.Equal(t, 3, ops[0].StartPosition)
	assert.Equal(t, 4, ops[0].EndPosition)

	// 内容未被刷新
	got, err := env.docRepo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Content)
}

func TestStorageServiceOperationDeleteEndPosition(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "ab")

	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "a", &OperationInput{
		Type:     "delete",
		Position: 1,
		Content:  "b",
	}))

	require.Eventually(t, func() bool {
		return len(env.svc.GetOperations(context.Background(), doc.ID, 10, 0)) == 1
	}, 3*time.Second, 10*time.Millisecond)

	ops := env.svc.GetOperations(context.Background(), doc.ID, 10, 0)
	require.Len(t, ops, 1)
	assert.Equal(t, domain.OperationTypeDelete, ops[0].OperationType)
	assert.Equal(t, 1, ops[0].StartPosition)
	assert.Equal(t, 1, ops[0].EndPosition)
	// 未提供操作ID时自动生成
	assert.NotEmpty(t, ops[0].OperationID)
}

func TestStorageServiceSnapshotKeepsCounter(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "checkpoint me")

	require.NoError(t, env.svc.CreateSnapshot(context.Background(), doc.ID, 2, "named checkpoint"))

	got, err := env.docRepo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	// 手动快照不推进版本计数
	assert.Equal(t, doc.Version, got.Version)

	versions := env.svc.GetVersions(context.Background(), doc.ID, 10, 0)
	require.Len(t, versions, 1)
	assert.Equal(t, doc.Version, versions[0].VersionNumber)
	assert.Equal(t, "named checkpoint", versions[0].ChangeDescription)

	// 文档不存在时返回错误
	err = env.svc.CreateSnapshot(context.Background(), 99999, 2, "")
	assert.Error(t, err)
}

func TestStorageServiceSnapshotThenFlush(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "initial content")

	// 快照在当前版本号写入一行，版本计数不动
	require.NoError(t, env.svc.CreateSnapshot(context.Background(), doc.ID, 2, "before edits"))
	// 同一版本号允许再次快照
	require.NoError(t, env.svc.CreateSnapshot(context.Background(), doc.ID, 2, "before edits again"))

	// 随后的自动保存以同一版本号归档，不得与快照行冲突
	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "completely different content now much longer", nil))
	env.waitDocVersion(t, doc.ID, doc.Version+1)

	got, err := env.docRepo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "completely different content now much longer", got.Content)
	assert.Equal(t, doc.Version+1, got.Version)

	// 版本 1 现有三行：两个快照与自动归档，按编号读取最新一行
	versions := env.svc.GetVersions(context.Background(), doc.ID, 10, 0)
	require.Len(t, versions, 3)
	for _, v := range versions {
		assert.Equal(t, doc.Version, v.VersionNumber)
	}
	v1, err := env.verRepo.GetByNumber(context.Background(), doc.ID, doc.Version)
	require.NoError(t, err)
	assert.Equal(t, "initial content", v1.Content)

	// 快照后恢复同样不受同号行影响
	require.True(t, env.svc.RestoreVersion(context.Background(), doc.ID, doc.Version, 3))
	got, err = env.docRepo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "initial content", got.Content)
	assert.Equal(t, doc.Version+2, got.Version)
}

func TestStorageServiceRestoreVersion(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "version one content here")

	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "version two content entirely new", nil))
	env.waitDocVersion(t, doc.ID, 2)

	// 恢复到版本 1
	ok := env.svc.RestoreVersion(context.Background(), doc.ID, 1, 3)
	require.True(t, ok)

	got, err := env.docRepo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "version one content here", got.Content)
	// 版本计数推进而不是回退到目标版本
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, int64(3), got.LastEditorUID)

	// 恢复前内容已归档为版本 2
	v2, err := env.verRepo.GetByNumber(context.Background(), doc.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "version two content entirely new", v2.Content)

	// 目标版本不存在时失败
	assert.False(t, env.svc.RestoreVersion(context.Background(), doc.ID, 999, 3))
	// 文档不存在时失败
	assert.False(t, env.svc.RestoreVersion(context.Background(), 99999, 1, 3))
}

func TestStorageServiceStatistics(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "统计内容")

	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "统计内容改动很大很大很大很大", &OperationInput{
		Type:     "insert",
		Position: 4,
		Content:  "改动",
	}))
	env.waitDocVersion(t, doc.ID, 2)

	require.Eventually(t, func() bool {
		stats := env.svc.GetStatistics(context.Background(), doc.ID)
		return stats != nil && stats.OperationCount == 1
	}, 3*time.Second, 10*time.Millisecond)

	stats := env.svc.GetStatistics(context.Background(), doc.ID)
	require.NotNil(t, stats)
	assert.Equal(t, doc.ID, stats.DocumentID)
	assert.Equal(t, int64(2), stats.CurrentVersion)
	assert.Equal(t, int64(1), stats.VersionCount)
	// 内容长度按字符数计算
	assert.Equal(t, 14, stats.ContentLength)
	assert.Equal(t, int64(2), stats.LastEditorUID)

	// 文档不存在时返回 nil
	assert.Nil(t, env.svc.GetStatistics(context.Background(), 99999))
}

func TestStorageServiceCleanupOperations(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "content")

	ctx := context.Background()
	for i := 0; i < 8; i++ {
		_, err := env.opRepo.Create(ctx, &domain.DocumentOperation{
			DocumentID:    doc.ID,
			UID:           1,
			OperationID:   fmt.Sprintf("cleanup-op-%d", i),
			OperationType: domain.OperationTypeInsert,
		})
		require.NoError(t, err)
	}

	deleted, err := env.svc.CleanupOperations(ctx, doc.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	ops := env.svc.GetOperations(ctx, doc.ID, 100, 0)
	require.Len(t, ops, 3)
	assert.Equal(t, "cleanup-op-7", ops[0].OperationID)
}

func TestStorageServiceVersionDiff(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())
	doc := env.createDocument(t, "line one\nline two\n")

	require.NoError(t, env.svc.SubmitSave(doc.ID, 2, "line one\nline two changed\nline three\n", nil))
	env.waitDocVersion(t, doc.ID, 2)

	// 版本 1（归档）对比版本 2（在线内容）
	result, err := env.svc.VersionDiff(context.Background(), doc.ID, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, result)

	var hasInsert, hasDelete bool
	for _, seg := range result.Segments {
		switch seg.Type {
		case "insert":
			hasInsert = true
		case "delete":
			hasDelete = true
		}
	}
	assert.True(t, hasInsert)
	assert.True(t, hasDelete)

	// 不存在的版本报错
	_, err = env.svc.VersionDiff(context.Background(), doc.ID, 99, 2)
	assert.Error(t, err)
}

func TestStorageServiceShutdownDrains(t *testing.T) {
	env := newTestEnv(t, DefaultSavePolicyConfig())

	docs := make([]*domain.Document, 0, 4)
	for i := 0; i < 4; i++ {
		docs = append(docs, env.createDocument(t, "initial"))
	}

	// 关闭前入队的请求全部处理完
	for i, doc := range docs {
		content := fmt.Sprintf("drained content %d %s", i, strings.Repeat("y", 30))
		require.NoError(t, env.svc.SubmitSave(doc.ID, 2, content, nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.svc.Shutdown(ctx))

	for i, doc := range docs {
		got, err := env.docRepo.GetByID(context.Background(), doc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version, "document %d", i)
	}

	// 关闭后拒绝新请求
	err := env.svc.SubmitSave(docs[0].ID, 2, "late", nil)
	assert.Error(t, err)

	// 重复关闭幂等
	require.NoError(t, env.svc.Shutdown(context.Background()))
	assert.Equal(t, 0, env.svc.QueueDepth())
}
