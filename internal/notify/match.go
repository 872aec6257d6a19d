package notify

import "bytes"

func containsPath(body []byte, path string) bool {
	return bytes.Contains(body, []byte(path))
}
