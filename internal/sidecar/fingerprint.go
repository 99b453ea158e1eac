package sidecar

import (
	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/refdocs/internal/frontmatter"
)

// fingerprintField is the frontmatter key holding the content fingerprint.
var fingerprintField = mdfp.FingerprintField

// ComputeFingerprint computes the canonical content fingerprint for a
// sidecar document. The fingerprint field itself and the version pin are
// excluded from the hash so promotion never changes a fingerprint.
func ComputeFingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == fingerprintField || k == fieldVersion {
			continue
		}
		forHash[k] = v
	}

	fm := ""
	if len(forHash) > 0 {
		serialized, err := frontmatter.SerializeYAML(forHash, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		fm = trimSingleTrailingNewline(string(serialized))
	}

	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// Untouched reports whether a sidecar file still matches the fingerprint
// written at skeleton creation, i.e. no human has edited it yet.
func Untouched(content []byte) (bool, error) {
	fm, body, had, _, err := frontmatter.Split(content)
	if err != nil || !had {
		return false, err
	}
	fields, err := frontmatter.ParseYAML(fm)
	if err != nil {
		return false, err
	}
	stored, _ := fields[fingerprintField].(string)
	if stored == "" {
		return false, nil
	}
	current, err := ComputeFingerprint(fields, body)
	if err != nil {
		return false, err
	}
	return stored == current, nil
}

func trimSingleTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}
