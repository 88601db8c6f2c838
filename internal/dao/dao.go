// Package dao 实现数据访问层
package dao

import (
	"fmt"
	"os"
	"time"

	"github.com/nexdoc/doc-persist-service/internal/model"
	"github.com/nexdoc/doc-persist-service/pkg/fileurl"
	"github.com/nexdoc/doc-persist-service/pkg/util"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type            string
	Path            string
	UserName        string
	Password        string
	Host            string
	Name            string
	TablePrefix     string
	AutoMigrate     bool
	Charset         string
	ParseTime       bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	ConnMaxIdleTime string
	RunMode         string
}

// Dao 数据访问对象，持有数据库连接
type Dao struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New 创建 Dao 实例
func New(db *gorm.DB, logger *zap.Logger) *Dao {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dao{db: db, logger: logger}
}

func (d *Dao) DB() *gorm.DB {
	return d.db
}

func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// AutoMigrate 执行表结构迁移
func (d *Dao) AutoMigrate(key string) error {
	return model.AutoMigrate(d.db, key)
}

// NewDBEngine 创建 GORM 连接
func NewDBEngine(c *DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dbDialector(c)
	if err != nil {
		return nil, err
	}

	logMode := gormlogger.Silent
	if c.RunMode == "debug" {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true, // 使用单数表名
		},
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB，配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)

	if c.ConnMaxLifetime != "" {
		if lifetime, err := util.ParseDuration(c.ConnMaxLifetime); err == nil {
			sqlDB.SetConnMaxLifetime(lifetime)
		}
	} else {
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	if c.ConnMaxIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.ConnMaxIdleTime); err == nil {
			sqlDB.SetConnMaxIdleTime(idleTime)
		}
	}

	return db, nil
}

func dbDialector(c *DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			c.Charset,
			c.ParseTime,
		)), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			c.Host,
			c.UserName,
			c.Password,
			c.Name,
		)), nil
	case "sqlite", "":
		if c.Path != ":memory:" && !fileurl.IsExist(c.Path) {
			if err := fileurl.CreatePath(c.Path, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(c.Path), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", c.Type)
}
