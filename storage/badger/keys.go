package badger

import (
	"bytes"
	"fmt"
)

// Key prefixes for different data types
const (
	postPrefix         = "post"
	categoryPrefix     = "cat"
	postCategoryPrefix = "postcat"
)

// makePostKey generates a key for a post by ID.
func makePostKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", postPrefix, id))
}

// makeCategoryKey generates a key for a category by ID.
func makeCategoryKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", categoryPrefix, id))
}

// makePostCategoryKey generates a composite key for the category index.
// Format: prefix:categoryID:postID
func makePostCategoryKey(categoryID, postID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", postCategoryPrefix, categoryID, postID))
}

// makePartialPostCategoryKey generates a partial key for category queries.
// Format: prefix:categoryID:
func makePartialPostCategoryKey(categoryID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", postCategoryPrefix, categoryID))
}

// scanPrefix returns the prefix matching every primary key of one kind.
func scanPrefix(kind string) []byte {
	return []byte(kind + ":")
}

// postIDFromIndexKey extracts the post ID from a category index key.
func postIDFromIndexKey(key, partial []byte) string {
	return string(bytes.TrimPrefix(key, partial))
}
