package reading

import "errors"

// Partition splits the readings of one site/subplot/treatment into one stream
// per recognized depth. Readings at other depths are dropped. A stream whose
// timestamps cannot be parsed is left out of the result and its error is
// joined into the returned error; the other depths are still returned.
func Partition(base StreamKey, readings []Reading) (map[Depth]*Stream, error) {
	byDepth := make(map[Depth][]Reading, len(RecognizedDepths))
	for _, r := range readings {
		if !r.Depth.IsRecognized() {
			continue
		}
		byDepth[r.Depth] = append(byDepth[r.Depth], r)
	}

	streams := make(map[Depth]*Stream, len(byDepth))
	var errs []error
	for _, depth := range RecognizedDepths {
		depthReadings, ok := byDepth[depth]
		if !ok {
			continue
		}

		stream, err := NewStream(base.WithDepth(depth), depthReadings)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		streams[depth] = stream
	}

	return streams, errors.Join(errs...)
}
