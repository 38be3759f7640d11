// Package journal 把报价、成交和参数变更写入本地 SQLite，供事后复盘。
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// QuoteRecord 一次成功下发的双边报价。
type QuoteRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Symbol   string `gorm:"index"`
	Bid      float64
	Ask      float64
	BidSize  float64
	AskSize  float64
	Mid      float64
	Position float64
	Ts       time.Time `gorm:"index"`
}

// FillRecord 一笔成交；Source 区分做市与猎杀策略。
type FillRecord struct {
	ID      uint   `gorm:"primaryKey"`
	OrderID string `gorm:"index"`
	Symbol  string `gorm:"index"`
	Side    string
	Qty     float64
	Price   float64
	Fee     float64
	Source  string
	Ts      time.Time `gorm:"index"`
}

// ParamChange 一次参数修改请求及其结果。
type ParamChange struct {
	ID       uint `gorm:"primaryKey"`
	Scope    string
	Name     string
	Value    string
	Accepted bool
	Error    string
	Ts       time.Time
}

// FillSummary 按交易对、方向汇总的成交。
type FillSummary struct {
	Symbol   string
	Side     string
	Count    int64
	Qty      float64
	Notional float64
	Fees     float64
}

// Journal SQLite 日志库。
type Journal struct {
	db *gorm.DB
}

// Open 打开（必要时创建）path 处的数据库并迁移表结构。
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("journal handle: %w", err)
	}
	// SQLite 单写者：多个交易对 goroutine 的写入在连接上排队
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&QuoteRecord{}, &FillRecord{}, &ParamChange{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) RecordQuote(r QuoteRecord) error {
	return j.db.Create(&r).Error
}

func (j *Journal) RecordFill(r FillRecord) error {
	return j.db.Create(&r).Error
}

func (j *Journal) RecordParamChange(r ParamChange) error {
	return j.db.Create(&r).Error
}

// Quotes 返回交易对最近 limit 条报价，按时间倒序；limit<=0 表示全部。
func (j *Journal) Quotes(symbol string, limit int) ([]QuoteRecord, error) {
	var out []QuoteRecord
	q := j.db.Where("symbol = ?", symbol).Order("ts desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// Fills 返回成交记录，按时间先后；symbol 为空时返回全部。
func (j *Journal) Fills(symbol string) ([]FillRecord, error) {
	var out []FillRecord
	q := j.db.Order("ts asc, id asc")
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	err := q.Find(&out).Error
	return out, err
}

func (j *Journal) ParamChanges() ([]ParamChange, error) {
	var out []ParamChange
	err := j.db.Order("id asc").Find(&out).Error
	return out, err
}

// FillSummary 按交易对与方向聚合成交。
func (j *Journal) FillSummary() ([]FillSummary, error) {
	var out []FillSummary
	err := j.db.Model(&FillRecord{}).
		Select("symbol, side, count(*) as count, sum(qty) as qty, sum(qty*price) as notional, sum(fee) as fees").
		Group("symbol, side").
		Order("symbol, side").
		Scan(&out).Error
	return out, err
}

func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
