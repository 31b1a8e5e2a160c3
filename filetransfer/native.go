package filetransfer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mxterm/mxterm/internal/xerrors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// putNativeSFTP copies local to remote over an SFTP sub-channel opened on
// the single-hop SSH client, grounded on the tailscale-vms harness's
// sftp.NewClient(conn) + cli.Create/io.Copy pattern.
func putNativeSFTP(client *ssh.Client, local, remote string) error {
	sc, err := sftp.NewClient(client)
	if err != nil {
		return err
	}
	defer sc.Close()

	fin, err := os.Open(local)
	if err != nil {
		return &xerrors.FileTransferError{Path: local, Err: err}
	}
	defer fin.Close()

	fi, err := fin.Stat()
	if err != nil {
		return &xerrors.FileTransferError{Path: local, Err: err}
	}

	fout, err := sc.Create(remote)
	if err != nil {
		return &xerrors.FileTransferError{Path: remote, Err: err}
	}
	defer fout.Close()

	if err := fout.Chmod(fi.Mode()); err != nil {
		return &xerrors.FileTransferError{Path: remote, Err: err}
	}
	if _, err := io.Copy(fout, fin); err != nil {
		return &xerrors.FileTransferError{Path: remote, Err: err}
	}
	return nil
}

// getNativeSFTP copies remote to local over an SFTP sub-channel.
func getNativeSFTP(client *ssh.Client, remote, local string) error {
	sc, err := sftp.NewClient(client)
	if err != nil {
		return err
	}
	defer sc.Close()

	fin, err := sc.Open(remote)
	if err != nil {
		return &xerrors.FileTransferError{Path: remote, Err: err}
	}
	defer fin.Close()

	fout, err := os.Create(local)
	if err != nil {
		return &xerrors.FileTransferError{Path: local, Err: err}
	}
	defer fout.Close()

	if _, err := io.Copy(fout, fin); err != nil {
		return &xerrors.FileTransferError{Path: local, Err: err}
	}
	return nil
}

// putNativeSCP streams local to remote via the classic SCP sink protocol
// (C0644 <size> <name> handshake) over a dedicated exec session, grounded
// on the enos ssh-transport Copy method.
func putNativeSCP(client *ssh.Client, local, remote string) (err error) {
	session, err := client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fin, err := os.Open(local)
	if err != nil {
		return &xerrors.FileTransferError{Path: local, Err: err}
	}
	defer fin.Close()
	fi, err := fin.Stat()
	if err != nil {
		return &xerrors.FileTransferError{Path: local, Err: err}
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return err
	}
	bufOut := bufio.NewReader(stdout)

	checkAck := func() error {
		code, err := bufOut.ReadByte()
		if err != nil {
			return err
		}
		if code != 0 {
			msg, _, _ := bufOut.ReadLine()
			return fmt.Errorf("scp: %s", string(msg))
		}
		return nil
	}

	errC := make(chan error, 1)
	go func() {
		defer stdin.Close()
		if _, err := fmt.Fprintln(stdin, "C0644", fi.Size(), filepath.Base(remote)); err != nil {
			errC <- err
			return
		}
		if err := checkAck(); err != nil {
			errC <- err
			return
		}
		if fi.Size() > 0 {
			if _, err := io.Copy(stdin, fin); err != nil {
				errC <- err
				return
			}
		}
		if _, err := fmt.Fprint(stdin, "\x00"); err != nil {
			errC <- err
			return
		}
		errC <- checkAck()
	}()

	runErr := session.Run(fmt.Sprintf("scp -t %s", filepath.Dir(remote)))
	if copyErr := <-errC; copyErr != nil {
		return &xerrors.FileTransferError{Path: remote, Err: copyErr}
	}
	if runErr != nil {
		return &xerrors.FileTransferError{Path: remote, Err: runErr}
	}
	return nil
}
