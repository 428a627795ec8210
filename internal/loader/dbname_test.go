package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sql2xlsx/internal/dbconn"
)

func TestResolveDatabaseName(t *testing.T) {
	tests := []struct {
		name   string
		engine dbconn.Engine
		script string
		want   string
	}{
		{
			name:   "create database with backticks",
			engine: dbconn.MySQL,
			script: "CREATE DATABASE `Shop`;\nUSE `Shop`;\nCREATE TABLE items (id INT);",
			want:   "Shop",
		},
		{
			name:   "create database without quotes",
			engine: dbconn.MySQL,
			script: "create database if not exists inventory;\nuse inventory;",
			want:   "inventory",
		},
		{
			name:   "use without create database",
			engine: dbconn.MySQL,
			script: "USE reporting;\nCREATE TABLE t (a INT);",
			want:   "reporting",
		},
		{
			name:   "mysqldump header and versioned comments",
			engine: dbconn.MySQL,
			script: "-- MySQL dump 10.13\n-- Host: localhost    Database: shop\n" +
				"/*!40101 SET NAMES utf8mb4 */;\n" +
				"CREATE DATABASE /*!32312 IF NOT EXISTS*/ `shop` /*!40100 DEFAULT CHARACTER SET utf8mb4 */;\n" +
				"USE `shop`;\n",
			want: "shop",
		},
		{
			name:   "only the first matching statement counts",
			engine: dbconn.MySQL,
			script: "USE first;\nCREATE DATABASE second;",
			want:   "first",
		},
		{
			name:   "keywords split across lines",
			engine: dbconn.MySQL,
			script: "CREATE\n  DATABASE\n  multi_line_db\n;",
			want:   "multi_line_db",
		},
		{
			name:   "trailing punctuation stripped",
			engine: dbconn.MySQL,
			script: "use shop,\n",
			want:   "shop",
		},
		{
			name:   "use inside a longer word does not match",
			engine: dbconn.MySQL,
			script: "INSERT INTO users VALUES (1);\nUSE accounts;",
			want:   "accounts",
		},
		{
			name:   "postgres create database with double quotes",
			engine: dbconn.Postgres,
			script: "CREATE DATABASE \"Shop\" WITH ENCODING 'UTF8';\n\\connect \"Shop\"\n",
			want:   "Shop",
		},
		{
			name:   "pg_dump --create header",
			engine: dbconn.Postgres,
			script: "--\n-- PostgreSQL database dump\n--\n\n" +
				"SET statement_timeout = 0;\nSET client_encoding = 'UTF8';\n" +
				"SELECT pg_catalog.set_config('search_path', '', false);\n\n" +
				"--\n-- Name: shop; Type: DATABASE; Schema: -; Owner: postgres\n--\n\n" +
				"CREATE DATABASE shop WITH TEMPLATE = template0 ENCODING = 'UTF8' " +
				"LOCALE_PROVIDER = libc LOCALE = 'en_US.UTF-8';\n\n" +
				"ALTER DATABASE shop OWNER TO postgres;\n\n" +
				"\\connect shop\n\nCREATE TABLE public.items (id integer);\n",
			want: "shop",
		},
		{
			name:   "postgres quoted name with options",
			engine: dbconn.Postgres,
			script: "CREATE DATABASE \"Big \"\"Shop\"\"\" WITH ENCODING = 'UTF8' LOCALE = 'C';\n",
			want:   "Big \"Shop\"",
		},
		{
			name:   "postgres connect meta-command",
			engine: dbconn.Postgres,
			script: "SET client_encoding = 'UTF8';\n\\c shop\nCREATE TABLE items (id int);",
			want:   "shop",
		},
		{
			name:   "postgres ignores use keyword",
			engine: dbconn.Postgres,
			script: "COMMENT ON TABLE t IS 'we use this';\nCREATE DATABASE pgshop;",
			want:   "pgshop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDatabaseName(tt.script, tt.engine)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDatabaseName_NotFound(t *testing.T) {
	scripts := []string{
		"",
		"CREATE TABLE items (id INT);\nINSERT INTO items VALUES (1);",
		"CREATE DATABASE ``;",
	}

	for _, script := range scripts {
		_, err := ResolveDatabaseName(script, dbconn.MySQL)
		assert.ErrorIs(t, err, ErrNameResolution, "script %q", script)
	}
}
