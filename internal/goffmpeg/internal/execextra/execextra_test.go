package execextra

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"testing"
)

func requireDD(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("dd"); err != nil {
		t.Skip("dd not found")
	}
}

func ddArgs(inFD, outFD uintptr) []string {
	return []string{fmt.Sprintf("if=/dev/fd/%d", inFD), fmt.Sprintf("of=/dev/fd/%d", outFD)}
}

func TestExtraInOutPipe(t *testing.T) {
	requireDD(t)

	c := Command("dd")
	in, inFd, err := c.ExtraInPipe()
	if err != nil {
		t.Fatal(err)
	}
	out, outFd, err := c.ExtraOutPipe()
	if err != nil {
		t.Fatal(err)
	}
	c.Args = append(c.Args, ddArgs(inFd, outFd)...)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	expectedBytes := []byte("hello")
	writeErrCh := make(chan error, 1)
	go func() {
		_, err := in.Write(expectedBytes)
		if cerr := in.Close(); err == nil {
			err = cerr
		}
		writeErrCh <- err
	}()

	b := &bytes.Buffer{}
	if _, err := io.Copy(b, out); err != nil {
		t.Error(err)
	}
	if err := <-writeErrCh; err != nil {
		t.Error(err)
	}
	// wait should be done after all reads are complete
	if err := c.Wait(); err != nil {
		t.Error(err)
	}

	if !bytes.Equal(expectedBytes, b.Bytes()) {
		t.Errorf("expected bytes %v got %v", expectedBytes, b.Bytes())
	}
}

func TestExtraInOut(t *testing.T) {
	requireDD(t)

	expectedBytes := []byte("hello")

	c := Command("dd")
	inFd, err := c.ExtraIn(bytes.NewBuffer(expectedBytes))
	if err != nil {
		t.Fatal(err)
	}
	actualBuffer := &bytes.Buffer{}
	outFd, err := c.ExtraOut(actualBuffer)
	if err != nil {
		t.Fatal(err)
	}
	c.Args = append(c.Args, ddArgs(inFd, outFd)...)
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(expectedBytes, actualBuffer.Bytes()) {
		t.Errorf("expected bytes %v got %v", expectedBytes, actualBuffer.Bytes())
	}
}

func TestAbortClosesPipes(t *testing.T) {
	c := Command("dd")
	in, _, err := c.ExtraInPipe()
	if err != nil {
		t.Fatal(err)
	}
	c.Abort()

	if _, err := in.Write([]byte("a")); err == nil {
		t.Error("expected write to aborted pipe to fail")
	}
}

func TestStartFailureClosesPipes(t *testing.T) {
	c := Command("/nonexistent/svgcast-test-binary")
	in, _, err := c.ExtraInPipe()
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err == nil {
		t.Fatal("expected start error")
	}

	if _, err := in.Write([]byte("a")); err == nil {
		t.Error("expected write to closed pipe to fail")
	}
}
