package loader

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/JonMunkholm/sql2xlsx/internal/dbconn"
)

var (
	createDatabasePattern = regexp.MustCompile(`(?i)\bcreate\s+database\b`)
	usePattern            = regexp.MustCompile(`(?i)\buse\b`)
	connectPattern        = regexp.MustCompile(`(?im)^\s*\\c(?:onnect)?\s+(\S+)`)

	// pgCreateDatabasePattern captures the name that directly follows
	// CREATE DATABASE, so pg_dump's trailing WITH options are never read.
	pgCreateDatabasePattern = regexp.MustCompile(`(?is)\bcreate\s+database\s+("(?:[^"]|"")+"|[^\s;]+)`)
)

// ResolveDatabaseName scans the ';'-separated statements of script in order
// and takes the name from the first one that creates or selects a database.
//
// This is a permissive first-match heuristic, not a parser: the name is the
// first quoted identifier in the statement, or else its last word. Keywords
// inside comments or string literals can therefore win.
//
// Postgres CREATE DATABASE takes the identifier right after the keywords
// instead, since pg_dump appends WITH options to the statement.
func ResolveDatabaseName(script string, engine dbconn.Engine) (string, error) {
	quote := "`"
	if engine == dbconn.Postgres {
		quote = `"`
	}

	for _, stmt := range strings.Split(script, ";") {
		switch {
		case engine == dbconn.Postgres && createDatabasePattern.MatchString(stmt):
			return postgresDatabaseName(stmt)
		case createDatabasePattern.MatchString(stmt):
			return identifierFrom(stmt, quote)
		case engine == dbconn.MySQL && usePattern.MatchString(stmt):
			return identifierFrom(stmt, quote)
		case engine == dbconn.Postgres:
			if m := connectPattern.FindStringSubmatch(stmt); m != nil {
				return cleanIdentifier(strings.Trim(m[1], quote))
			}
		}
	}

	return "", ErrNameResolution
}

func identifierFrom(stmt, quote string) (string, error) {
	if strings.Contains(stmt, quote) {
		return cleanIdentifier(strings.SplitN(stmt, quote, 3)[1])
	}

	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return "", ErrNameResolution
	}
	return cleanIdentifier(fields[len(fields)-1])
}

// cleanIdentifier strips surrounding whitespace and trailing punctuation.
// Underscores are part of identifiers and stay.
func cleanIdentifier(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return r != '_' && (unicode.IsSpace(r) || unicode.IsPunct(r))
	})
	if s == "" {
		return "", ErrNameResolution
	}
	return s, nil
}

// postgresDatabaseName reads the identifier right after CREATE DATABASE.
// Quoted names keep their case and have doubled quotes collapsed.
func postgresDatabaseName(stmt string) (string, error) {
	m := pgCreateDatabasePattern.FindStringSubmatch(stmt)
	if m == nil {
		return "", ErrNameResolution
	}
	name := m[1]
	if strings.HasPrefix(name, `"`) {
		name = strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
		if strings.TrimSpace(name) == "" {
			return "", ErrNameResolution
		}
		return name, nil
	}
	return cleanIdentifier(name)
}
