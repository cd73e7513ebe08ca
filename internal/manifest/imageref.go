// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import "strings"

// ImageRef is a parsed "<repository>:<version>" reference.
type ImageRef struct {
	Repository string
	Version    string
}

// parseImageRef splits ref on the FIRST colon only, so a registry port
// (e.g. "host:5000/img:tag") parses as repository "host", version
// "5000/img:tag". This is intentional: the source this core is ported
// from does the same, and the cross-manifest deploy conflict check
// depends on the resulting repository key being stable, not "correct".
// See the parse_image_ref open question.
func parseImageRef(ref string) (ImageRef, bool) {
	idx := strings.IndexByte(ref, ':')
	if idx < 0 {
		return ImageRef{}, false
	}
	return ImageRef{Repository: ref[:idx], Version: ref[idx+1:]}, true
}
