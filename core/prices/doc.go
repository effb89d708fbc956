// Package prices reads day-ahead electricity prices from a locally mirrored
// dataset of per-day JSON files. Raw market prices are published in
// currency/MWh and converted to currency/kWh, then passed through a
// configurable tariff transform.
package prices
