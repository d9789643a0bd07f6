package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/tarvault/internal/domain"
)

func TestBackup(t *testing.T) {
	Convey("Given a Backup use case", t, func() {
		ctx := context.Background()
		storage := newMemStorage()
		archiver := &fakeArchiver{}
		expander := &fakeExpander{files: []string{"data/app.db", "config.yaml"}}
		cleanup := &countingExecutor{}
		target := Target{BackupName: "db", RemoteDir: "backups", WorkDir: t.TempDir()}
		clock := func() time.Time { return time.Date(2024, time.May, 4, 3, 2, 1, 0, time.Local) }

		newBackup := func() *Backup {
			return NewBackup(target, []string{"data/**", "config.yaml"}, storage, archiver, expander, cleanup, nopLogger).
				WithClock(clock)
		}

		Convey("When files match the patterns", func() {
			uc := newBackup()
			err := uc.Execute(ctx)

			Convey("It should archive, upload, remove the local copy and clean up", func() {
				So(err, ShouldBeNil)
				So(archiver.created, ShouldResemble, []string{"data/app.db", "config.yaml"})
				So(storage.names("backups"), ShouldResemble, []string{"db-20240504030201.tar.gz"})
				So(uc.LastArchive(), ShouldEqual, "db-20240504030201.tar.gz")
				So(cleanup.runs, ShouldEqual, 1)

				_, statErr := os.Stat(filepath.Join(target.WorkDir, "db-20240504030201.tar.gz"))
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When no file matches", func() {
			expander.files = nil
			uc := newBackup()
			err := uc.Execute(ctx)

			Convey("It should succeed without archiving or uploading", func() {
				So(err, ShouldBeNil)
				So(archiver.created, ShouldBeEmpty)
				So(storage.calls, ShouldBeEmpty)
				So(cleanup.runs, ShouldEqual, 0)
				So(uc.LastArchive(), ShouldBeEmpty)

				entries, _ := os.ReadDir(target.WorkDir)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When expanding fails", func() {
			expander.err = errBoom
			err := newBackup().Execute(ctx)

			Convey("It should return the error", func() {
				So(errors.Is(err, errBoom), ShouldBeTrue)
				So(storage.calls, ShouldBeEmpty)
			})
		})

		Convey("When archiving fails", func() {
			archiver.createErr = errBoom
			err := newBackup().Execute(ctx)

			Convey("It should not upload", func() {
				So(errors.Is(err, errBoom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "create archive")
				So(storage.calls, ShouldBeEmpty)
			})
		})

		Convey("When the upload fails", func() {
			storage.uploadErr = domain.NewTransferError("upload", "db-20240504030201.tar.gz", errBoom)
			err := newBackup().Execute(ctx)

			Convey("It should abort before cleanup and keep the local archive", func() {
				So(errors.Is(err, domain.ErrTransfer), ShouldBeTrue)
				So(cleanup.runs, ShouldEqual, 0)

				_, statErr := os.Stat(filepath.Join(target.WorkDir, "db-20240504030201.tar.gz"))
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When cleanup fails", func() {
			cleanup.err = errBoom
			uc := newBackup()
			err := uc.Execute(ctx)

			Convey("It should fail the operation after the upload", func() {
				So(errors.Is(err, errBoom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "cleanup")
				So(storage.names("backups"), ShouldResemble, []string{"db-20240504030201.tar.gz"})
			})
		})

		Convey("When wired to a real Cleanup", func() {
			storage.put("backups", "db-20240101000000.tar.gz", "db-20240201000000.tar.gz")
			uc := NewBackup(target, nil, storage, archiver, expander,
				NewCleanup(target, storage, nopLogger, 2), nopLogger).WithClock(clock)
			err := uc.Execute(ctx)

			Convey("It should prune the oldest archive after uploading", func() {
				So(err, ShouldBeNil)
				So(storage.names("backups"), ShouldResemble, []string{
					"db-20240201000000.tar.gz",
					"db-20240504030201.tar.gz",
				})
			})
		})
	})
}
