package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atinyakov/telecombase/internal/client/api"
)

func (s *Shell) login(ctx context.Context, register bool) error {
	username, err := s.p.required("Username")
	if err != nil {
		return err
	}
	password, err := s.p.password("Password")
	if err != nil {
		return err
	}

	var sess api.Session
	if register {
		sess, err = s.client.Register(ctx, username, password)
	} else {
		sess, err = s.client.Login(ctx, username, password)
	}
	if register && api.IsPendingApproval(err) {
		fmt.Fprintln(s.out, "Account created. An administrator has to approve it before you can sign in.")
		return nil
	}
	if err != nil {
		return err
	}

	s.persist()
	fmt.Fprintf(s.out, "Signed in as %s (%s)\n", sess.Username, sess.Role)
	return nil
}

func (s *Shell) logout() error {
	s.client.Logout()
	if s.store != nil {
		s.store.Clear()
		if err := s.store.Save(); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	fmt.Fprintln(s.out, "Signed out")
	return nil
}

func (s *Shell) whoami() error {
	if !s.client.Authenticated() {
		fmt.Fprintf(s.out, "Not signed in (%s)\n", s.client.BaseURL())
		return nil
	}
	sess := s.client.Session()
	fmt.Fprintf(s.out, "%s (%s) at %s\n", sess.Username, sess.Role, s.client.BaseURL())
	return nil
}

func (s *Shell) url(args []string) error {
	switch len(args) {
	case 0:
		fmt.Fprintln(s.out, s.client.BaseURL())
		return nil
	case 1:
		s.client.SetBaseURL(args[0])
		s.persist()
		fmt.Fprintln(s.out, "Server set to", s.client.BaseURL())
		return nil
	}
	return errors.New("usage: url [base-url]")
}

func (s *Shell) health(ctx context.Context) error {
	start := time.Now()
	status, err := s.client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s (%s)\n", status, time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Shell) listVendors(ctx context.Context) error {
	vendors, err := s.client.ListVendors(ctx)
	if err != nil {
		return err
	}
	s.table("ID\tNAME\tCOUNTRY", func(w io.Writer) {
		for _, v := range vendors {
			fmt.Fprintf(w, "%d\t%s\t%s\n", v.ID, v.Name, v.Country)
		}
	})
	return nil
}

func (s *Shell) findVendor(ctx context.Context, id int64) (api.Vendor, error) {
	vendors, err := s.client.ListVendors(ctx)
	if err != nil {
		return api.Vendor{}, err
	}
	for _, v := range vendors {
		if v.ID == id {
			return v, nil
		}
	}
	return api.Vendor{}, fmt.Errorf("vendor %d not found", id)
}

// saveVendor creates a vendor when id is 0 and edits it otherwise.
func (s *Shell) saveVendor(ctx context.Context, id int64) error {
	var cur api.Vendor
	if id != 0 {
		var err error
		if cur, err = s.findVendor(ctx, id); err != nil {
			return err
		}
	}
	name, err := s.p.text("Name", cur.Name)
	if err != nil {
		return err
	}
	country, err := s.p.text("Country", cur.Country)
	if err != nil {
		return err
	}

	if id == 0 {
		newID, err := s.client.CreateVendor(ctx, name, country)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Vendor %d created\n", newID)
		return nil
	}
	if err := s.client.UpdateVendor(ctx, id, name, country); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Vendor %d updated\n", id)
	return nil
}

func (s *Shell) listModels(ctx context.Context) error {
	models, err := s.client.ListModels(ctx)
	if err != nil {
		return err
	}
	s.table("ID\tMODEL\tTYPE", func(w io.Writer) {
		for _, m := range models {
			fmt.Fprintf(w, "%d\t%s\t%s\n", m.ID, m.DisplayName(), m.DeviceType)
		}
	})
	return nil
}

func (s *Shell) saveModel(ctx context.Context, id int64) error {
	var cur api.Model
	if id != 0 {
		models, err := s.client.ListModels(ctx)
		if err != nil {
			return err
		}
		found := false
		for _, m := range models {
			if m.ID == id {
				cur, found = m, true
				break
			}
		}
		if !found {
			return fmt.Errorf("model %d not found", id)
		}
	}

	vendorID, err := s.p.id("Vendor id", cur.VendorID)
	if err != nil {
		return err
	}
	name, err := s.p.text("Name", cur.Name)
	if err != nil {
		return err
	}
	deviceType, err := s.p.text("Device type", cur.DeviceType)
	if err != nil {
		return err
	}

	if id == 0 {
		newID, err := s.client.CreateModel(ctx, vendorID, name, deviceType)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Model %d created\n", newID)
		return nil
	}
	if err := s.client.UpdateModel(ctx, id, vendorID, name, deviceType); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Model %d updated\n", id)
	return nil
}

func (s *Shell) listLocations(ctx context.Context) error {
	locations, err := s.client.ListLocations(ctx)
	if err != nil {
		return err
	}
	s.table("ID\tNAME\tNOTE", func(w io.Writer) {
		for _, l := range locations {
			fmt.Fprintf(w, "%d\t%s\t%s\n", l.ID, l.Name, l.Note)
		}
	})
	return nil
}

func (s *Shell) saveLocation(ctx context.Context, id int64) error {
	var cur api.Location
	if id != 0 {
		locations, err := s.client.ListLocations(ctx)
		if err != nil {
			return err
		}
		found := false
		for _, l := range locations {
			if l.ID == id {
				cur, found = l, true
				break
			}
		}
		if !found {
			return fmt.Errorf("location %d not found", id)
		}
	}

	name, err := s.p.text("Name", cur.Name)
	if err != nil {
		return err
	}
	note, err := s.p.text("Note", cur.Note)
	if err != nil {
		return err
	}

	if id == 0 {
		newID, err := s.client.CreateLocation(ctx, name, note)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Location %d created\n", newID)
		return nil
	}
	if err := s.client.UpdateLocation(ctx, id, name, note); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Location %d updated\n", id)
	return nil
}

func (s *Shell) listDevices(ctx context.Context, query string) error {
	devices, err := s.client.ListDevices(ctx, query)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(s.out, "No devices")
		return nil
	}
	s.table("ID\tVENDOR\tMODEL\tLOCATION\tSERIAL\tINVENTORY\tSTATUS\tINSTALLED", func(w io.Writer) {
		for _, d := range devices {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				d.ID, d.VendorName, d.ModelName, dash(d.LocationName),
				d.SerialNumber, d.InventoryNumber, d.Status, dash(d.InstalledAt))
		}
	})
	return nil
}

func (s *Shell) showDevice(ctx context.Context, id int64) error {
	d, err := s.client.GetDevice(ctx, id)
	if err != nil {
		return err
	}
	s.table("FIELD\tVALUE", func(w io.Writer) {
		fmt.Fprintf(w, "id\t%d\n", d.ID)
		fmt.Fprintf(w, "model\t%d\n", d.ModelID)
		fmt.Fprintf(w, "location\t%s\n", d.LocationID)
		fmt.Fprintf(w, "serial\t%s\n", dash(d.SerialNumber))
		fmt.Fprintf(w, "inventory\t%s\n", dash(d.InventoryNumber))
		fmt.Fprintf(w, "status\t%s\n", dash(d.Status))
		fmt.Fprintf(w, "installed\t%s\n", dash(d.InstalledAt))
		fmt.Fprintf(w, "description\t%s\n", dash(d.Description))
	})
	return nil
}

// saveDevice creates a device when id is 0. Editing starts from the
// server's current copy so unanswered prompts keep their values.
func (s *Shell) saveDevice(ctx context.Context, id int64) error {
	cur := api.Device{Status: "active"}
	if id != 0 {
		var err error
		if cur, err = s.client.GetDevice(ctx, id); err != nil {
			return err
		}
	}

	var (
		d   = cur
		err error
	)
	if d.ModelID, err = s.p.id("Model id", cur.ModelID); err != nil {
		return err
	}
	if d.LocationID, err = s.p.optionalID("Location id", cur.LocationID); err != nil {
		return err
	}
	if d.SerialNumber, err = s.p.text("Serial number", cur.SerialNumber); err != nil {
		return err
	}
	if d.InventoryNumber, err = s.p.text("Inventory number", cur.InventoryNumber); err != nil {
		return err
	}
	if d.Status, err = s.p.text("Status", cur.Status); err != nil {
		return err
	}
	if d.InstalledAt, err = s.installedAt(cur.InstalledAt); err != nil {
		return err
	}
	if d.Description, err = s.p.text("Description", cur.Description); err != nil {
		return err
	}

	if id == 0 {
		newID, err := s.client.CreateDevice(ctx, d)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Device %d created\n", newID)
		return nil
	}
	if err := s.client.UpdateDevice(ctx, id, d); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Device %d updated\n", id)
	return nil
}

// installedAt asks for a YYYY-MM-DD date; "-" clears it.
func (s *Shell) installedAt(current string) (string, error) {
	for {
		v, err := s.p.text("Installed at (YYYY-MM-DD, - for none)", current)
		if err != nil {
			return "", err
		}
		if v == "-" || v == "" {
			return "", nil
		}
		if _, err := time.Parse(time.DateOnly, v); err == nil {
			return v, nil
		}
		fmt.Fprintf(s.out, "invalid date %q\n", v)
	}
}

func (s *Shell) listUsers(ctx context.Context) error {
	users, err := s.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	s.table("ID\tUSERNAME\tROLE\tAPPROVED\tCREATED", func(w io.Writer) {
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, yesNo(u.Approved), dash(u.CreatedAt))
		}
	})
	return nil
}

func (s *Shell) listPending(ctx context.Context) error {
	users, err := s.client.ListPendingUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(s.out, "No pending accounts")
		return nil
	}
	s.table("ID\tUSERNAME\tCREATED", func(w io.Writer) {
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, dash(u.CreatedAt))
		}
	})
	return nil
}

func (s *Shell) approve(ctx context.Context, id int64, approved bool) error {
	var err error
	if approved {
		err = s.client.ApproveUser(ctx, id)
	} else {
		err = s.client.SetUserApproved(ctx, id, false)
	}
	if err != nil {
		return err
	}
	if approved {
		fmt.Fprintf(s.out, "User %d approved\n", id)
	} else {
		fmt.Fprintf(s.out, "User %d disabled\n", id)
	}
	return nil
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
