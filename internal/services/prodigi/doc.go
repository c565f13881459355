// Package prodigi implements the remote print API client: order creation and
// status lookup against a Prodigi-compatible endpoint, with error
// classification into transient transport failures and definitive provider
// rejections.
package prodigi
