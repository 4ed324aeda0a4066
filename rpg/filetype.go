package rpg

var (
	fileTypes = map[int32]FileType{
		789345: {Level1, V1_0},
		789346: {Level0, V2_0},
		789347: {Level1, V2_0},
		889346: {Level0, V3_5},
		889347: {Level1, V3_5},
		889348: {Level1, V4_0},
	}
)

// ResolveFileType maps the leading file code to its level and version.
func ResolveFileType(code int32) (FileType, error) {
	ft, ok := fileTypes[code]
	if !ok {
		return FileType{}, &UnknownFormatError{FileCode: code}
	}
	return ft, nil
}

// FileCodes lists every known file code.
func FileCodes() []int32 {
	codes := make([]int32, 0, len(fileTypes))
	for code := range fileTypes {
		codes = append(codes, code)
	}
	return codes
}
