package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 违反唯一性（重复打卡、重复认领周报）
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotPending 周报记录已经是终态
	ErrNotPending = errors.New("report log is not pending")
)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
