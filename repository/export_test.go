package repository

// TranslateForTest exposes translate to the external test package.
func TranslateForTest(err error) error {
	return translate(err, "test")
}
