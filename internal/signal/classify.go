// Package signal flags plugin functions whose strings or native calls hint
// at behavior worth a closer look: remote commands, privilege changes,
// network and database access.
package signal

import (
	"math"
	"regexp"
	"strings"
)

// Categories for string and native classification.
const (
	CatURL       = "url"
	CatHost      = "host"
	CatAuth      = "auth"
	CatNet       = "net"
	CatFileExt   = "file"
	CatBase64Key = "base64"
	CatSQL       = "sql"
	CatCrypto    = "crypto"

	CatExec      = "exec"      // server_cmd, client_cmd and friends
	CatPrivilege = "privilege" // admin flag changes
	CatIdentity  = "identity"  // IP, SteamID collection
	CatCvar      = "cvar"      // server variable writes
)

var (
	reURL       = regexp.MustCompile(`(?i)(https?|wss?|ftp)://`)
	reIPLiteral = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	reBase64    = regexp.MustCompile(`^[A-Za-z0-9+/=]{16,}$`)
	reSQL       = regexp.MustCompile(`(?i)^\s*(select\s.+\sfrom|insert\s+into|update\s.+\sset|delete\s+from|create\s+table|drop\s+table|replace\s+into)\b`)

	// Standalone match only, so "tokenize" or "passwordless_ui" style
	// identifiers do not count.
	reAuth = regexp.MustCompile(`(?i)(^|[^a-z])(password|passwd|rcon_password|sv_password|token|secret|apikey|api_key|authorization)([^a-z]|$)`)

	reCryptoShort = regexp.MustCompile(`(?i)(^|[^a-zA-Z])(md5|sha1|sha256|hmac|xor|aes|rc4)([^a-zA-Z]|$)`)

	// Console commands a plugin pushes to the server or a client.
	reExecCmd = regexp.MustCompile(`(?i)^\s*(rcon|exec|quit|exit|kill|bind|alias|connect|retry|cl_|developer|motdfile|sv_cheats|rcon_password)\b`)

	netKeywords = []string{"socket", "connect", "http", "proxy", "redirect"}

	signalExtensions = []string{
		".cfg", ".ini", ".txt", ".log", ".sql", ".sq3", ".db",
		".amxx", ".dll", ".so", ".bsp", ".wad",
	}

	// Native name prefixes by category, matched case-insensitively.
	nativePrefixes = []struct {
		cat      string
		prefixes []string
	}{
		{CatExec, []string{"server_cmd", "server_exec", "client_cmd", "engclient_cmd", "amxclient_cmd", "console_cmd"}},
		{CatPrivilege, []string{"set_user_flags", "remove_user_flags", "set_user_access", "admins_push", "admins_flush"}},
		{CatIdentity, []string{"get_user_ip", "get_user_authid", "get_user_steamid"}},
		{CatNet, []string{"socket_", "http", "curl_", "ezhttp_", "grip_"}},
		{CatSQL, []string{"sql_", "dbi_", "sqlite_", "mysql_"}},
		{CatFileExt, []string{"fopen", "fwrite", "fputs", "write_file", "delete_file", "rename_file", "unlink", "mkdir", "rmdir"}},
		{CatCvar, []string{"set_cvar_", "set_pcvar_", "cvar_set"}},
		{CatCrypto, []string{"md5", "hash_string", "hash_file"}},
	}
)

// ClassifyString returns the set of signal categories matching the value.
// Returns nil if the string carries no signal.
func ClassifyString(value string) []string {
	if len(value) < 2 {
		return nil
	}

	var cats []string
	lower := strings.ToLower(value)

	if reURL.MatchString(value) {
		cats = append(cats, CatURL)
	}
	if reIPLiteral.MatchString(value) {
		cats = append(cats, CatHost)
	}
	if reAuth.MatchString(value) {
		cats = append(cats, CatAuth)
	}
	if reCryptoShort.MatchString(value) {
		cats = append(cats, CatCrypto)
	}
	if reSQL.MatchString(value) {
		cats = append(cats, CatSQL)
	}
	if reExecCmd.MatchString(value) {
		cats = append(cats, CatExec)
	}

	if !containsCat(cats, CatURL) {
		for _, w := range netKeywords {
			if strings.Contains(lower, w) {
				cats = append(cats, CatNet)
				break
			}
		}
	}

	for _, ext := range signalExtensions {
		if strings.HasSuffix(lower, ext) || strings.Contains(lower, ext+" ") || strings.Contains(lower, ext+"\"") {
			cats = append(cats, CatFileExt)
			break
		}
	}

	// High-entropy standalone token. Identifiers match the character set
	// but are not keys.
	trimmed := strings.TrimSpace(value)
	if reBase64.MatchString(trimmed) && entropy(trimmed) > 3.5 && !isCamelCase(trimmed) {
		cats = append(cats, CatBase64Key)
	}
	return cats
}

// ClassifyNative returns the category of a native by name, "" for none.
func ClassifyNative(name string) string {
	lower := strings.ToLower(name)
	for _, np := range nativePrefixes {
		for _, p := range np.prefixes {
			if strings.HasPrefix(lower, p) {
				return np.cat
			}
		}
	}
	return ""
}

// Severity levels.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// CategorySeverity returns the severity level for a category.
func CategorySeverity(cat string) string {
	switch cat {
	case CatExec, CatPrivilege, CatAuth:
		return SeverityHigh
	case CatURL, CatHost, CatNet, CatSQL, CatIdentity, CatBase64Key:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// MaxSeverity returns the highest severity from a list of categories.
func MaxSeverity(categories []string) string {
	best := SeverityLow
	for _, c := range categories {
		switch CategorySeverity(c) {
		case SeverityHigh:
			return SeverityHigh
		case SeverityMedium:
			best = SeverityMedium
		}
	}
	return best
}

// isCamelCase returns true if the string has a lower-to-upper transition
// (e.g. "checkAdminFlags").
func isCamelCase(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] >= 'a' && s[i-1] <= 'z' && s[i] >= 'A' && s[i] <= 'Z' {
			return true
		}
	}
	return false
}

func containsCat(cats []string, cat string) bool {
	for _, c := range cats {
		if c == cat {
			return true
		}
	}
	return false
}

// entropy computes Shannon entropy of a string in bits per character.
func entropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	freq := make(map[byte]int)
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}
	n := float64(len(s))
	var ent float64
	for _, count := range freq {
		p := float64(count) / n
		ent -= p * math.Log2(p)
	}
	return ent
}
