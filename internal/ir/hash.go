package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix allows the
// encoding to change without colliding with stored digests.
const (
	DomainPlan    = "forgeplan/plan/v1"
	DomainCatalog = "forgeplan/catalog/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PlanDigest returns the content digest of a plan. Two plans with the same
// tree, recipes and costs share a digest.
func PlanDigest(p Plan) (string, error) {
	canonical, err := MarshalCanonical(p.ToIR())
	if err != nil {
		return "", fmt.Errorf("PlanDigest: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}

// CatalogDigest returns the content digest of a catalog spec.
func CatalogDigest(s CatalogSpec) (string, error) {
	canonical, err := MarshalCanonical(s.ToIR())
	if err != nil {
		return "", fmt.Errorf("CatalogDigest: %w", err)
	}
	return hashWithDomain(DomainCatalog, canonical), nil
}
