// Package instagram provides the upstream feed client, the paginated
// feed walker and the media extractor.
//
// The walker is pure with respect to the pagination cursor: the same
// (account, page size, cursor) tuple always requests the same logical
// page, and no responses are cached.
package instagram
