package core

import "strconv"

func rowID(id int64) string {
	if id < 0 {
		return "s" + strconv.FormatInt(-id, 10)
	}
	return strconv.FormatInt(id, 10)
}

// IsSynthetic reports whether id was assigned at ingestion rather than
// received from upstream.
func IsSynthetic(id int64) bool { return id < 0 }

func (t Track) RowID() string { return rowID(t.ID) }

func (t Track) Field(key string) any {
	switch key {
	case "id":
		return t.ID
	case "title":
		return t.Title
	case "artist", "artistName":
		return t.ArtistName()
	case "fileUrl":
		return t.FileURL
	case "fileType":
		return t.FileType
	case "uploadType":
		return t.UploadType
	case "status":
		if t.Status == nil {
			return nil
		}
		return t.Status
	case "user":
		if t.User == nil {
			return nil
		}
		return t.User.Name
	case "uploadedDate":
		return t.UploadedDate
	case "duration":
		return t.Duration
	case "notes":
		return t.Notes
	}
	return nil
}

func (l LogSheet) RowID() string { return rowID(l.ID) }

func (l LogSheet) Field(key string) any {
	switch key {
	case "id":
		return l.ID
	case "title":
		return l.Title
	case "createdDate", "createdAt":
		return l.CreatedDate
	case "company", "companyName":
		return l.CompanyName(UnknownCompany)
	case "selectedMusic", "selections":
		return len(l.SelectedMusic)
	}
	return nil
}

func (u User) RowID() string { return rowID(u.ID) }

func (u User) Field(key string) any {
	switch key {
	case "id":
		return u.ID
	case "name":
		return u.Name
	case "email":
		return u.Email
	case "role":
		return string(u.Role)
	}
	return nil
}

func (c Company) RowID() string { return rowID(c.ID) }

func (c Company) Field(key string) any {
	switch key {
	case "id":
		return c.ID
	case "companyName", "name":
		return c.CompanyName
	case "email":
		return c.Email
	}
	return nil
}
