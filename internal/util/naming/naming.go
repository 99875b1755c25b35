package naming

import (
	"fmt"
	"path"
)

// Naming functions for cluster resources.
// Every name is a pure function of its arguments.

func Node(cluster, role string, index int) string {
	return fmt.Sprintf("%s-%s-%d", cluster, role, index)
}

func Stage(kind string, index int) string {
	return fmt.Sprintf("%s-%d", kind, index)
}

// ArtifactKey returns the object key of an artifact in the S3 bucket.
func ArtifactKey(prefix, cluster, file string) string {
	return path.Join(prefix, cluster, file)
}
