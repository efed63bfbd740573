// Package data provides the embedded seed documents backing the in-memory
// stores: the product catalog, merchant fee settings, and promo code rules.
package data

import _ "embed"

// Products contains the distributor catalog as a JSON array.
//
//go:embed products.json
var Products []byte

// Settings contains the merchant fee settings document served verbatim by
// the settings endpoint.
//
//go:embed settings.json
var Settings []byte

// PromoCodes contains the promo rule list as a JSON array.
//
//go:embed promocodes.json
var PromoCodes []byte
