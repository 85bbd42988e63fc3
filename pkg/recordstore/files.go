package recordstore

import "net/url"

// FileURL builds the retrieval URL for a file stored on a record.
func (c *Client) FileURL(collection, recordID, filename string) string {
	return c.baseURL + "/api/files/" +
		url.PathEscape(collection) + "/" +
		url.PathEscape(recordID) + "/" +
		url.PathEscape(filename)
}

// ThumbURL builds the retrieval URL for a server-side thumbnail, e.g.
// size "100x100".
func (c *Client) ThumbURL(collection, recordID, filename, size string) string {
	return c.FileURL(collection, recordID, filename) + "?thumb=" + url.QueryEscape(size)
}
