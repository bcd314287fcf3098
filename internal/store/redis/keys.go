package redis

const (
	// KeyPrefixBookmark maps a bookmark's external id to its post id.
	KeyPrefixBookmark = "linkmirror:post:bookmark:"
	// KeyPrefixSlug maps a bookmark slug to its post id. Slugs can be
	// reassigned upstream, so this key is a hint, not a durable link.
	KeyPrefixSlug = "linkmirror:post:slug:"
)

// BookmarkKey returns the index key for a bookmark external id.
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// SlugKey returns the index key for a bookmark slug.
func SlugKey(slug string) string {
	return KeyPrefixSlug + slug
}
