package bucket

// MiscellaneousBucket receives every file whose extension is not in the table.
const MiscellaneousBucket = "miscellaneous-files-bucket"

// Assignment maps a lowercase extension, without the dot, to a bucket.
type Assignment struct {
	Extension string `json:"extension"`
	Bucket    string `json:"bucket"`
}

// DefaultAssignments is the routing table used by both upload entry points.
var DefaultAssignments = []Assignment{
	{Extension: "jpg", Bucket: "atom-jpg-bucket"},
	{Extension: "jpeg", Bucket: "atom-jpeg-bucket"},
	{Extension: "mp3", Bucket: "atom-mp3-bucket"},
	{Extension: "mp4", Bucket: "atom-mp4-bucket"},
	{Extension: "gif", Bucket: "atom-gif-bucket"},
	{Extension: "pdf", Bucket: "atom-pdf-bucket"},
	{Extension: "raw", Bucket: "atom-raw-bucket"},
	{Extension: "txt", Bucket: "atom-txt-bucket"},
	{Extension: "png", Bucket: "atom-png-bucket"},
}

// Listing is the public view of the routing table.
type Listing struct {
	Supported     map[string]string `json:"supported"`
	Miscellaneous string            `json:"miscellaneous"`
}
