// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import "strings"

const (
	maxNameLength   = 63
	maxPrefixLength = 253
)

// ValidLabelKey reports whether key is a well-formed label key: either a
// bare name, or a "prefix/name" pair where prefix is a DNS-subdomain-like
// string. Pure predicate; no error taxonomy per the label grammar.
func ValidLabelKey(key string) bool {
	if idx := strings.IndexByte(key, '/'); idx >= 0 {
		prefix, name := key[:idx], key[idx+1:]
		return isValidDNSSubdomain(prefix) && isValidLabelName(name)
	}
	return isValidLabelName(key)
}

// ValidLabel reports whether a key/value pair conforms to the label
// grammar. Values carry no length or character restriction in this
// core beyond being present.
func ValidLabel(key, value string) bool {
	return ValidLabelKey(key)
}

func isValidLabelName(name string) bool {
	if len(name) == 0 || len(name) > maxNameLength {
		return false
	}
	if !isAlnum(name[0]) || !isAlnum(name[len(name)-1]) {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isAlnum(c) && c != '.' && c != '_' && c != '-' {
			return false
		}
	}
	return true
}

func isValidDNSSubdomain(prefix string) bool {
	if len(prefix) == 0 || len(prefix) > maxPrefixLength {
		return false
	}
	parts := strings.Split(prefix, ".")
	for _, part := range parts {
		if !isValidDNSLabelPart(part) {
			return false
		}
	}
	return true
}

func isValidDNSLabelPart(part string) bool {
	if len(part) == 0 || len(part) > maxNameLength {
		return false
	}
	if !isAlpha(part[0]) || !isAlnum(part[len(part)-1]) {
		return false
	}
	for i := 0; i < len(part); i++ {
		c := part[i]
		if !isAlnum(c) && c != '-' {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}
