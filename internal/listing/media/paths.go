package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Ext is the extension of every stored image object, full or thumbnail.
const Ext = "jpeg"

const thumbSuffix = "-thumb"

// Prefix is the key prefix under which all of a listing's objects live.
func Prefix(listingID string) string {
	return listingID + "/"
}

func ImagePath(listingID string, index int) string {
	return fmt.Sprintf("%s/%d.%s", listingID, index, Ext)
}

func ThumbPath(listingID string, index int) string {
	return fmt.Sprintf("%s/%d%s.%s", listingID, index, thumbSuffix, Ext)
}

// ImagePaths returns the full-size paths for indices 0..n-1.
func ImagePaths(listingID string, n int) []string {
	paths := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		paths = append(paths, ImagePath(listingID, i))
	}
	return paths
}

// ThumbPaths returns the thumbnail paths for indices 0..n-1.
func ThumbPaths(listingID string, n int) []string {
	paths := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		paths = append(paths, ThumbPath(listingID, i))
	}
	return paths
}

// ParseKey is the inverse of ImagePath and ThumbPath. ok is false for keys
// that were not produced by either.
func ParseKey(key string) (listingID string, index int, thumb bool, ok bool) {
	slash := strings.LastIndexByte(key, '/')
	if slash <= 0 {
		return "", 0, false, false
	}
	listingID, name := key[:slash], key[slash+1:]

	name, found := strings.CutSuffix(name, "."+Ext)
	if !found {
		return "", 0, false, false
	}
	name, thumb = strings.CutSuffix(name, thumbSuffix)

	index, err := strconv.Atoi(name)
	if err != nil || index < 0 || strconv.Itoa(index) != name {
		return "", 0, false, false
	}
	return listingID, index, thumb, true
}
