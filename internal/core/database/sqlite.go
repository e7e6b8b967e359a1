package database

import (
	"database/sql"
	"strings"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
)

const sqliteDriverName = "sqlite3_unicode"

var registerSQLite sync.Once

// sqliteDriver registers a sqlite3 driver whose LOWER() folds the full
// Unicode range, so LIKE searches behave like mysql/postgres.
func sqliteDriver() string {
	registerSQLite.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				// 内置 lower() 只处理 ASCII
				return conn.RegisterFunc("lower", unicodeLower, true)
			},
		})
	})
	return sqliteDriverName
}

func unicodeLower(v any) any {
	if s, ok := v.(string); ok {
		return strings.ToLower(s)
	}
	return v // NULL/数字原样返回
}
