package headerstore

import "errors"

var errNilHeader = errors.New("headerstore: nil block header")
