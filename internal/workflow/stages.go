package workflow

// Stage names used for context, logs and hooks.
const (
	StageCatalog   = "catalog"
	StageStaging   = "staging"
	StageArchives  = "archives"
	StageReconcile = "reconcile"
	StageMedia     = "media"
	StageDocuments = "documents"
	StageFinalize  = "finalize"
	StagePublish   = "publish"
)

// SourceExtensions are the staged video types paired with lessons.
var SourceExtensions = []string{".mp4"}
