package calendar

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLink(t *testing.T) {
	link, err := EventLink(Event{
		Title:           "Reunião & café",
		Date:            "2024-03-10",
		Time:            "14:30",
		DurationMinutes: 90,
		Description:     "Sala 2",
	})
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "Reunião & café", q.Get("text"))
	assert.Equal(t, "20240310T143000/20240310T160000", q.Get("dates"))
	assert.Equal(t, "Sala 2", q.Get("details"))
	assert.NotContains(t, link, "+")
}

func TestEventLinkDefaults(t *testing.T) {
	link, err := EventLink(Event{Title: "Dentista", Date: "2024-12-31", Time: "23:30"})
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "20241231T233000/20250101T003000", u.Query().Get("dates"))
	assert.NotContains(t, link, "details=")

	link, err = EventLink(Event{Title: "Dentista", Date: "2024-03-10"})
	require.NoError(t, err)
	u, err = url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "20240310T090000/20240310T100000", u.Query().Get("dates"))
}

func TestEventLinkRejectsBadDate(t *testing.T) {
	_, err := EventLink(Event{Title: "x", Date: "10/03/2024"})
	assert.Error(t, err)
}
