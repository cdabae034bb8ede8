// conf/consts.go hard coded constants
package conf

// SupportedClipFormats lists the clip formats the transcoder can produce
// and the feature extractor can decode.
var SupportedClipFormats = []string{"ogg", "flac", "wav"}

func isSupportedClipFormat(format string) bool {
	for _, f := range SupportedClipFormats {
		if f == format {
			return true
		}
	}
	return false
}
