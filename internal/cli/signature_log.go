package cli

import (
	"log/slog"

	"go.mozilla.org/pkcs7"

	"github.com/xyproto/pegraft/internal/pe"
)

// winCertHeaderLen is the size of the WIN_CERTIFICATE header (dwLength,
// wRevision, wCertificateType) prefixed to every Security Directory blob;
// the PKCS#7 SignedData content starts right after it.
const winCertHeaderLen = 8

// logSignedDataStructure does a structural, non-verifying parse of the
// donor's Authenticode SignedData for --verbose diagnostics. It never
// checks the signature itself, only logs the certificate chain shape, so a
// parse failure on a malformed or nonstandard blob is logged and ignored
// rather than treated as an error.
func logSignedDataStructure(donor *pe.Image) {
	if donor.Security == nil || len(donor.Security.Data) <= winCertHeaderLen {
		return
	}
	p7, err := pkcs7.Parse(donor.Security.Data[winCertHeaderLen:])
	if err != nil {
		slog.Debug("donor signature structural parse failed", "err", err)
		return
	}
	names := make([]string, 0, len(p7.Certificates))
	for _, cert := range p7.Certificates {
		names = append(names, cert.Subject.CommonName)
	}
	slog.Debug("donor signature structure", "certificates", names, "signers", len(p7.Signers))
}
