package models

// ArtifactRef identifies a file in object storage. LocalPath is set only for
// inputs; outputs are existence-checked, never downloaded.
type ArtifactRef struct {
	Bucket    string
	Key       string
	LocalPath string
}

// URI returns the s3:// form of the reference
func (r ArtifactRef) URI() string {
	return "s3://" + r.Bucket + "/" + r.Key
}
