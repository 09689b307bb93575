// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe32plus

import (
	"errors"
	"unsafe"

	"go.mozilla.org/pkcs7"
)

// CertificateHead is the fixed 8-byte header (WIN_CERTIFICATE) preceding
// each certificate's opaque payload in the certificate table.
type CertificateHead struct {
	Length   uint32
	Revision uint16
	Type     uint16
}

// Certificate is a single entry of the certificate table: a header plus a
// reader over its opaque payload. This package never decodes the payload
// itself — see ParsePKCS7 for an opt-in accessor.
type Certificate struct {
	head *CertificateHead
	data *ByteReader
}

func newCertificate(data []byte, head *CertificateHead) *Certificate {
	return &Certificate{head: head, data: NewReader(data)}
}

// Revision returns the certificate's wRevision field.
func (c *Certificate) Revision() uint16 {
	return c.head.Revision
}

// Type returns the certificate's wCertificateType field.
func (c *Certificate) Type() uint16 {
	return c.head.Type
}

// Value returns a reader over the certificate's opaque payload bytes.
func (c *Certificate) Value() *ByteReader {
	return c.data
}

// ParsePKCS7 decodes the certificate's payload as a PKCS#7 signed-data
// blob. It is an additive, opt-in accessor: CertificateTable iteration
// never calls it on the caller's behalf.
func (c *Certificate) ParsePKCS7() (*pkcs7.PKCS7, error) {
	p7, err := pkcs7.Parse(c.data.Bytes())
	if err != nil {
		return nil, errMalformed("certificate payload is not valid PKCS#7: %s", err)
	}
	return p7, nil
}

// CertificateTable is a lazy, forward-only iterator over the certificate
// directory, the sole data directory addressed by file offset rather than
// RVA.
type CertificateTable struct {
	data *ByteReader
}

func newCertificateTable(r *ByteReader, _ DataDirectory) *CertificateTable {
	return &CertificateTable{data: r}
}

// Next returns the table's next certificate, or (nil, nil) once the table
// is exhausted.
func (t *CertificateTable) Next() (*Certificate, error) {
	head, err := ReadT[CertificateHead](t.data)
	if err != nil {
		if errors.Is(err, ErrInsufficientBuffer) {
			return nil, nil
		}
		return nil, err
	}

	headSize := int(unsafe.Sizeof(CertificateHead{}))
	length := int(head.Length) - headSize
	remaining := t.data.Remaining()
	if length < 0 || length > len(remaining) {
		return nil, errInsufficientBuffer()
	}
	data := remaining[:length]

	// Each record, header included, is padded to an 8-byte boundary.
	advance := int(alignUp(head.Length, 8)) - headSize
	t.data.AdvanceCur(advance)

	return newCertificate(data, head), nil
}
