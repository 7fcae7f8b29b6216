package runcmd

import (
	"fmt"
	"io"
	"os"
)

const (
	readChunkSizeConstant                 = 4096
	initialRecordCapacityShiftConstant    = 5
	recordCapacityGrowthFactorConstant    = 2
	newlineByteConstant                   = byte('\n')
	pipeReadFailureTemplateConstant       = "reading captured output failed: %w"
	unknownStreamSelectorTemplateConstant = "%w: unknown stream selector %d"
)

// OutputStream selects which captured stream of a child to drain.
type OutputStream int

// Stream selectors accepted by Collect.
const (
	StreamStdout OutputStream = iota
	StreamStderr
)

// CaptureOptions adjusts how collected output is materialized.
//
// RawOnly skips line indexing entirely. SeparateCopy builds the line index
// over a private duplicate of the buffer so callers holding Bytes keep an
// aliasing-free view of the raw capture.
type CaptureOptions struct {
	RawOnly      bool
	SeparateCopy bool
}

// LineRecord delimits one newline-separated record inside a captured buffer.
type LineRecord struct {
	Offset int
	Length int
}

// CapturedOutput owns the bytes drained from one pipe plus an optional index
// of newline-separated records. The index never outlives the byte sequence
// it points into: records always reference storage held by this value.
type CapturedOutput struct {
	Bytes   []byte
	Records []LineRecord

	lineSource []byte
}

// LineCount reports the number of indexed records.
func (output CapturedOutput) LineCount() int {
	return len(output.Records)
}

// Line materializes the indexed record at the given position.
func (output CapturedOutput) Line(recordIndex int) string {
	record := output.Records[recordIndex]
	return string(output.lineSource[record.Offset : record.Offset+record.Length])
}

// Lines materializes every indexed record.
func (output CapturedOutput) Lines() []string {
	materializedLines := make([]string, 0, len(output.Records))
	for recordIndex := range output.Records {
		materializedLines = append(materializedLines, output.Line(recordIndex))
	}
	return materializedLines
}

// Collect drains the selected pipe of a registered handle into an owned
// buffer and, unless RawOnly is requested, indexes it into lines.
//
// The buffer grows by exactly each chunk read; total output size is unknown
// in advance and the capture is performed once, so reallocation count is not
// worth trading for slack. A read error mid-stream returns the partial
// buffer together with the error instead of discarding captured output. An
// empty capture yields zero records and no error.
func (registry *HandleRegistry) Collect(executionHandle Handle, stream OutputStream, options CaptureOptions) (CapturedOutput, error) {
	entry, registered := registry.lookupEntry(executionHandle)
	if !registered {
		return CapturedOutput{}, fmt.Errorf("%w", ErrInvalidHandle)
	}

	pipeFile, selectionError := selectStreamPipe(entry, stream)
	if selectionError != nil {
		return CapturedOutput{}, selectionError
	}

	capturedBytes, readError := drainPipe(pipeFile)
	collectedOutput := CapturedOutput{Bytes: capturedBytes}
	if readError != nil {
		return collectedOutput, fmt.Errorf(pipeReadFailureTemplateConstant, readError)
	}

	if options.RawOnly || len(capturedBytes) == 0 {
		return collectedOutput, nil
	}

	recordSource := capturedBytes
	if options.SeparateCopy {
		duplicatedBytes := make([]byte, len(capturedBytes))
		copy(duplicatedBytes, capturedBytes)
		recordSource = duplicatedBytes
	}

	collectedOutput.Records = indexRecords(recordSource)
	collectedOutput.lineSource = recordSource

	return collectedOutput, nil
}

func selectStreamPipe(entry handleEntry, stream OutputStream) (*os.File, error) {
	switch stream {
	case StreamStdout:
		return entry.standardOutputPipe, nil
	case StreamStderr:
		return entry.standardErrorPipe, nil
	default:
		return nil, fmt.Errorf(unknownStreamSelectorTemplateConstant, ErrInvalidHandle, stream)
	}
}

// drainPipe reads fixed-size chunks until end of stream, extending the owned
// buffer to exactly accommodate each chunk.
func drainPipe(pipeFile *os.File) ([]byte, error) {
	var ownedBuffer []byte
	transferChunk := make([]byte, readChunkSizeConstant)

	for {
		bytesRead, readError := pipeFile.Read(transferChunk)
		if bytesRead > 0 {
			extendedBuffer := make([]byte, len(ownedBuffer)+bytesRead)
			copy(extendedBuffer, ownedBuffer)
			copy(extendedBuffer[len(ownedBuffer):], transferChunk[:bytesRead])
			ownedBuffer = extendedBuffer
		}

		if readError == io.EOF {
			return ownedBuffer, nil
		}
		if readError != nil {
			return ownedBuffer, readError
		}
	}
}

// indexRecords scans the buffer once, recording the offset and length of
// every newline-separated record. The record slice starts at a fraction of
// the buffer size and doubles on exhaustion, keeping construction
// amortized-linear. A trailing newline produces no trailing empty record.
func indexRecords(buffer []byte) []LineRecord {
	initialRecordCapacity := len(buffer) >> initialRecordCapacityShiftConstant
	if initialRecordCapacity < 1 {
		initialRecordCapacity = 1
	}

	records := make([]LineRecord, 0, initialRecordCapacity)
	scanOffset := 0
	for scanOffset < len(buffer) {
		if len(records) == cap(records) {
			expandedRecords := make([]LineRecord, len(records), cap(records)*recordCapacityGrowthFactorConstant)
			copy(expandedRecords, records)
			records = expandedRecords
		}

		recordEnd := scanOffset
		for recordEnd < len(buffer) && buffer[recordEnd] != newlineByteConstant {
			recordEnd++
		}

		records = append(records, LineRecord{Offset: scanOffset, Length: recordEnd - scanOffset})
		scanOffset = recordEnd + 1
	}

	return records
}
