package imagefmt

// readVIBTag reads the 3-byte id at offset 0..2 of sector 0 (the VIB
// lives in sector 0, which starts at file offset 0) and reports whether it matches the
// TI-99 "DSK" volume-information-block signature, per spec.md §4.3.
// A non-match is not an error: VIB absence gracefully degrades to
// size-based guessing, per spec.md §7.
func readVIBTag(f File) (tag string, ok bool, err error) {
	buf := make([]byte, 3)
	if err := f.Seek(0); err != nil {
		return "", false, err
	}
	n, err := f.Read(buf)
	if err != nil {
		return "", false, err
	}
	if n < 3 {
		return "", false, nil
	}
	return string(buf), string(buf) == "DSK", nil
}
