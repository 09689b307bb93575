// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

// Fuzz is the entry point for the legacy github.com/dvyukov/go-fuzz corpus
// runner: it parses data and walks every directory iterator, returning 0
// if Parse rejects data and 1 otherwise. An error from a directory iterator
// only stops the walk of that directory; it does not change the result.
func Fuzz(data []byte) int {
	v, err := Parse(data)
	if err != nil {
		return 0
	}

	if exports, err := v.Exports(); err == nil {
		for {
			e, err := exports.Next()
			if err != nil || e == nil {
				break
			}
		}
	}

	if imports, err := v.Imports(); err == nil {
		for {
			m, err := imports.Next()
			if err != nil || m == nil {
				break
			}
			for {
				i, err := m.Next()
				if err != nil || i == nil {
					break
				}
			}
		}
	}

	if relocs, err := v.Relocations(); err == nil {
		for {
			b, err := relocs.Next()
			if err != nil || b == nil {
				break
			}
			for {
				r, err := b.Next()
				if err != nil || r == nil {
					break
				}
			}
		}
	}

	if certs, err := v.Certificates(); err == nil {
		for {
			c, err := certs.Next()
			if err != nil || c == nil {
				break
			}
		}
	}

	return 1
}
