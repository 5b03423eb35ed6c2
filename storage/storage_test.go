package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyIsTimestampPrefixed(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "1700000000123avatar.png", ObjectKey(now, "avatar.png"))
	assert.Equal(t, "1700000000123my-photo.jpg", ObjectKey(now, "../../my photo.jpg"))
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"a.png":            "a.png",
		"dir/sub/b.png":    "b.png",
		`C:\tmp\c.png`:     "c.png",
		"\"quoted\".gif":   "quoted.gif",
		"bad\x00name.webp": "badname.webp",
		"":                 "file",
		"..":               "file",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0, Progress{Transferred: 10}.Percent())
	assert.Equal(t, 50, Progress{Transferred: 5, Total: 10}.Percent())
	assert.Equal(t, 100, Progress{Transferred: 12, Total: 10}.Percent())
}

func TestProgressCounterReportsMonotonically(t *testing.T) {
	var seen []Progress
	c := newProgressCounter(10, func(p Progress) { seen = append(seen, p) })

	n, err := c.Read(make([]byte, 4))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	c.set(3) // stale report is ignored
	c.set(10)

	assert.Equal(t, []Progress{{Transferred: 4, Total: 10}, {Transferred: 10, Total: 10}}, seen)
}

func TestMinioPublicBaseAndKeyRoundTrip(t *testing.T) {
	base := minioPublicBase(MinioOptions{Endpoint: "minio:9000", Bucket: "blog"})
	assert.Equal(t, "http://minio:9000/blog", base)
	assert.Equal(t, "https://cdn.example.com", minioPublicBase(MinioOptions{PublicURL: "https://cdn.example.com/", UseSSL: true}))

	key, ok := keyUnderBase(base, base+"/1700000000123my%20pic.png")
	assert.True(t, ok)
	assert.Equal(t, "1700000000123my pic.png", key)

	_, ok = keyUnderBase(base, "https://elsewhere/x.png")
	assert.False(t, ok)
}

func TestFirebaseDownloadURLRoundTrip(t *testing.T) {
	u := FirebaseDownloadURL("mern-blog.appspot.com", "1700000000123a b.png", "tok")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/mern-blog.appspot.com/o/1700000000123a%20b.png?alt=media&token=tok", u)

	s := &FirebaseStore{bucketName: "mern-blog.appspot.com"}
	key, ok := s.KeyFromURL(u)
	assert.True(t, ok)
	assert.Equal(t, "1700000000123a b.png", key)

	_, ok = s.KeyFromURL("https://firebasestorage.googleapis.com/v0/b/other/o/x.png?alt=media")
	assert.False(t, ok)
}
