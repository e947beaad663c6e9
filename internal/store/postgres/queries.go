package postgres

const bookmarkColumns = `id, url, title, description, category, position, created_at, updated_at`

const (
	insertBookmarkSQL = `INSERT INTO bookmarks (url, title, description, category, position)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`

	selectBookmarkSQL = `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE id = $1`

	selectBookmarkForUpdateSQL = selectBookmarkSQL + ` FOR UPDATE`

	updateBookmarkSQL = `UPDATE bookmarks
SET url = $2, title = $3, description = $4, category = $5, position = $6, updated_at = NOW()
WHERE id = $1
RETURNING updated_at`

	deleteBookmarkSQL = `DELETE FROM bookmarks WHERE id = $1`

	listBookmarksSQL = `SELECT ` + bookmarkColumns + ` FROM bookmarks
WHERE ($1::text IS NULL OR category = $1::text)
ORDER BY position ASC, created_at DESC, id DESC
OFFSET $2 LIMIT $3`

	bookmarksByIDsSQL = `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE id = ANY($1::bigint[])`

	// full-text over title/description/url, or any tag containing the query
	searchBookmarksSQL = `SELECT b.id, b.url, b.title, b.description, b.category, b.position, b.created_at, b.updated_at
FROM bookmarks b
WHERE b.search_vector @@ plainto_tsquery('english', $1)
   OR EXISTS (
	SELECT 1 FROM bookmark_tags bt JOIN tags t ON t.id = bt.tag_id
	WHERE bt.bookmark_id = b.id AND t.name ILIKE '%' || $1 || '%'
   )
ORDER BY ts_rank(b.search_vector, plainto_tsquery('english', $1)) DESC, b.position ASC, b.created_at DESC
LIMIT $2`

	categoriesSQL = `SELECT DISTINCT category FROM bookmarks WHERE category IS NOT NULL ORDER BY category`

	maxPositionSQL = `SELECT MAX(position) FROM bookmarks WHERE category IS NOT DISTINCT FROM $1::text`

	upsertTagSQL = `INSERT INTO tags (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`

	linkTagSQL = `INSERT INTO bookmark_tags (bookmark_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	unlinkTagsSQL = `DELETE FROM bookmark_tags WHERE bookmark_id = $1`

	tagsForBookmarksSQL = `SELECT bt.bookmark_id, t.id, t.name
FROM bookmark_tags bt JOIN tags t ON t.id = bt.tag_id
WHERE bt.bookmark_id = ANY($1::bigint[])
ORDER BY bt.bookmark_id, t.id`

	appendInteractionsSQL = `INSERT INTO bookmark_interactions (bookmark_id, action)
SELECT unnest($1::bigint[]), $2`

	interactionsSQL = `SELECT id, bookmark_id, action, timestamp FROM bookmark_interactions
WHERE bookmark_id = $1
ORDER BY timestamp ASC, id ASC`

	categoryCountsSQL = `SELECT COALESCE(category, 'Uncategorized') AS label, COUNT(*) FROM bookmarks GROUP BY label`

	tagCountsSQL = `SELECT t.name, COUNT(bt.bookmark_id)
FROM tags t JOIN bookmark_tags bt ON bt.tag_id = t.id
GROUP BY t.name`

	recentActionsSQL = `SELECT i.bookmark_id, b.title, i.action, i.timestamp
FROM bookmark_interactions i JOIN bookmarks b ON b.id = i.bookmark_id
ORDER BY i.timestamp DESC, i.id DESC
LIMIT $1`
)
