// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type sqlite, mysql or postgres
	Type        string `yaml:"type" default:"sqlite"`
	Path        string `yaml:"path" default:"storage/database/notes.db"`
	UserName    string `yaml:"username"`
	Password    string `yaml:"password"`
	Host        string `yaml:"host" default:"127.0.0.1:3306"`
	Name        string `yaml:"name" default:"thingspace_notes"`
	TablePrefix string `yaml:"table-prefix"`
	Charset     string `yaml:"charset" default:"utf8mb4"`
	ParseTime   bool   `yaml:"parse-time" default:"true"`
	SSLMode     string `yaml:"ssl-mode" default:"disable"`

	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`

	// Replicas are DSNs of read replicas (mysql/postgres); searches read from them.
	Replicas []string `yaml:"replicas"`
}

const memoryPath = ":memory:"

// NewDBEngineWithConfig opens the database described by c.
func NewDBEngineWithConfig(c DatabaseConfig, debug bool) (*gorm.DB, error) {
	dialector, err := dialectorFor(c)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true,
		},
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Minute * 10)
	if c.Type == "sqlite" && c.Path == memoryPath {
		// every connection would see its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if len(c.Replicas) > 0 && c.Type != "sqlite" {
		replicas := make([]gorm.Dialector, 0, len(c.Replicas))
		for _, dsn := range c.Replicas {
			replicas = append(replicas, dialectorForDSN(c.Type, dsn))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, errors.Wrap(err, "register read replicas")
		}
	}

	_ = db.Use(&gormTracing.OpentracingPlugin{})

	return db, nil
}

func dialectorFor(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=UTC",
			c.UserName, c.Password, c.Host, c.Name, c.Charset, c.ParseTime)), nil
	case "postgres":
		host, port, err := net.SplitHostPort(c.Host)
		if err != nil {
			host, port = c.Host, "5432"
		}
		return postgres.Open(fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			host, port, c.UserName, c.Password, c.Name, c.SSLMode)), nil
	case "sqlite", "":
		if c.Path == memoryPath {
			return sqlite.Open(memoryPath), nil
		}
		if err := os.MkdirAll(filepath.Dir(c.Path), os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
		dsn := c.Path
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
		return sqlite.Open(dsn), nil
	}
	return nil, errors.Errorf("unsupported database type %q", c.Type)
}

func dialectorForDSN(dbType, dsn string) gorm.Dialector {
	if dbType == "postgres" {
		return postgres.Open(dsn)
	}
	return mysql.Open(dsn)
}

// Dao wraps the primary connection and migrates tables lazily on first use.
type Dao struct {
	Db *gorm.DB

	migrated sync.Map // key -> *migration
}

type migration struct {
	once sync.Once
	err  error
}

func New(db *gorm.DB) *Dao {
	return &Dao{Db: db}
}

// UseWithMigrate returns a session bound to ctx after fn ran once for key.
func (d *Dao) UseWithMigrate(ctx context.Context, key string, fn func(*gorm.DB) error) (*gorm.DB, error) {
	v, _ := d.migrated.LoadOrStore(key, &migration{})
	m := v.(*migration)
	m.once.Do(func() {
		m.err = fn(d.Db)
	})
	if m.err != nil {
		return nil, errors.Wrapf(m.err, "migrate %s", key)
	}
	return d.Db.WithContext(ctx), nil
}

// Close closes the underlying connection pool.
func (d *Dao) Close() error {
	sqlDB, err := d.Db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
