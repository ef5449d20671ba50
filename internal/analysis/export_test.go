package analysis

import "time"

func SetNow(c *Client, now func() time.Time) {
	c.now = now
}
