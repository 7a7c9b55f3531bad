package vfs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
)

// Snapshot is a read-only view of one owner's records used for planning.
type Snapshot struct {
	records []models.Record
	norm    []string         // normalized names, parallel to records
	byID    map[int64]int    // id -> index
	byName  map[string]int64 // normalized name -> id
	folders map[string]struct{}
}

// NewSnapshot indexes records. The slice is not modified.
func NewSnapshot(records []models.Record) *Snapshot {
	s := &Snapshot{
		records: records,
		norm:    make([]string, len(records)),
		byID:    make(map[int64]int, len(records)),
		byName:  make(map[string]int64, len(records)),
		folders: FolderSet(records),
	}
	for i, r := range records {
		n := Normalize(r.Name)
		s.norm[i] = n
		s.byID[r.ID] = i
		if _, exists := s.byName[n]; !exists {
			s.byName[n] = r.ID
		}
	}
	return s
}

// Records returns the snapshot's records.
func (s *Snapshot) Records() []models.Record {
	return s.records
}

// Get returns the record with the given id.
func (s *Snapshot) Get(id int64) (models.Record, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Record{}, false
	}
	return s.records[i], true
}

// Lookup returns the file record named name, ignoring case.
func (s *Snapshot) Lookup(name string) (models.Record, bool) {
	return s.fileAt(Normalize(name), nil)
}

// IsFolder reports whether path is a derived folder, ignoring case.
func (s *Snapshot) IsFolder(path string) bool {
	_, ok := s.folders[Normalize(path)]
	return ok
}

// isFolderExcluding reports whether any record outside skip places a folder
// at the normalized path.
func (s *Snapshot) isFolderExcluding(normPath string, skip map[int64]bool) bool {
	prefix := normPath + separator
	for i, n := range s.norm {
		if skip[s.records[i].ID] {
			continue
		}
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// fileAt returns the non-marker record whose normalized name is normPath.
func (s *Snapshot) fileAt(normPath string, skip map[int64]bool) (models.Record, bool) {
	for i, n := range s.norm {
		r := s.records[i]
		if n == normPath && !skip[r.ID] && !IsFolderMarker(r.Name) {
			return r, true
		}
	}
	return models.Record{}, false
}

// members returns the records under folder (exact prefix), in cascade order.
func (s *Snapshot) members(folder string) []models.Record {
	var out []models.Record
	for _, r := range s.records {
		if InFolder(r.Name, folder) {
			out = append(out, r)
		}
	}
	cascadeOrder(out)
	return out
}

// cascadeOrder sorts non-marker records by name first and markers last, so an
// interrupted cascade still leaves every folder interpretable.
func cascadeOrder(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		mi, mj := IsFolderMarker(records[i].Name), IsFolderMarker(records[j].Name)
		if mi != mj {
			return !mi
		}
		return records[i].Name < records[j].Name
	})
}

// Plan is the set of record changes one operation implies. Creates carry no
// id yet. Updates carry the full new state. Reclaim lists asset references
// to release after the plan is committed.
type Plan struct {
	Creates []models.Record
	Updates []models.Record
	Deletes []models.Record
	Reclaim []string
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// Planner computes plans. It holds no per-owner state and is safe for
// concurrent use.
type Planner struct {
	languages   *LanguageTable
	assetPrefix string
}

// NewPlanner creates a planner. Records whose content starts with
// assetPrefix and whose language is a media language are uploaded assets.
func NewPlanner(languages *LanguageTable, assetPrefix string) *Planner {
	if languages == nil {
		languages = Languages()
	}
	return &Planner{languages: languages, assetPrefix: assetPrefix}
}

// IsAsset reports whether r references a standalone uploaded asset.
func (p *Planner) IsAsset(r models.Record) bool {
	return p.assetPrefix != "" &&
		p.languages.IsMedia(r.Language) &&
		strings.HasPrefix(r.Content, p.assetPrefix)
}

// CreateFile plans a new text record.
func (p *Planner) CreateFile(s *Snapshot, fullPath, content string) (*Plan, error) {
	name := CleanName(fullPath)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := s.checkFilePath(name, 0); err != nil {
		return nil, err
	}

	return &Plan{Creates: []models.Record{{
		Name:     name,
		Content:  content,
		Language: p.languages.TextLanguage(name),
	}}}, nil
}

// CreateFolder plans a folder marker for fullPath.
func (p *Planner) CreateFolder(s *Snapshot, fullPath string) (*Plan, error) {
	path := CleanName(fullPath)
	if err := ValidateFolderPath(path); err != nil {
		return nil, err
	}

	norm := Normalize(path)
	if s.IsFolder(path) {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("folder %q already exists", path),
			ResourceType: "folder",
			Reason:       domain.ErrDuplicateFolder,
		}
	}
	if f, ok := s.fileAt(norm, nil); ok {
		return nil, namespaceConflict(fmt.Sprintf("%q is a file", f.Name), f)
	}
	if err := s.checkAncestors(path, nil); err != nil {
		return nil, err
	}

	return &Plan{Creates: []models.Record{{
		Name:     MarkerName(path),
		Content:  "",
		Language: LanguagePlaintext,
	}}}, nil
}

// Upload plans a record for an uploaded asset stored at ref. The record is
// named folder/filename, or filename at the root.
func (p *Planner) Upload(s *Snapshot, folder, filename, ref string) (*Plan, error) {
	folder = CleanName(folder)
	filename = CleanName(filename)
	if folder != "" {
		if err := ValidateFolderPath(folder); err != nil {
			return nil, err
		}
	}
	if err := validateSegment(filename); err != nil {
		return nil, err
	}

	name := Join(folder, filename)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := s.checkFilePath(name, 0); err != nil {
		return nil, err
	}

	return &Plan{Creates: []models.Record{{
		Name:     name,
		Content:  ref,
		Language: p.languages.MediaLanguage(filename),
	}}}, nil
}

// UpdateFile plans a content edit and/or rename of one record. Nil arguments
// leave the field unchanged. Renames keep the id and reclassify the language.
func (p *Planner) UpdateFile(s *Snapshot, id int64, newPath, content *string) (*Plan, error) {
	current, ok := s.Get(id)
	if !ok {
		return nil, recordNotFound(id)
	}
	if newPath == nil && content == nil {
		return nil, &domain.ValidationError{Message: "nothing to update: provide name or content"}
	}
	if IsFolderMarker(current.Name) {
		return nil, &domain.ValidationError{Message: "folder markers are changed through the folder endpoints"}
	}

	updated := current
	if newPath != nil {
		name := CleanName(*newPath)
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		if name != current.Name {
			if err := s.checkFilePath(name, id); err != nil {
				return nil, err
			}
			updated.Name = name
			updated.Language = p.languages.Classify(name, p.IsAsset(current))
		}
	}
	if content != nil {
		updated.Content = *content
	}

	if updated == current {
		return &Plan{}, nil
	}
	return &Plan{Updates: []models.Record{updated}}, nil
}

// RenameFile plans a rename or move of one record.
func (p *Planner) RenameFile(s *Snapshot, id int64, newPath string) (*Plan, error) {
	return p.UpdateFile(s, id, &newPath, nil)
}

// EditContent plans a content rewrite of one record.
func (p *Planner) EditContent(s *Snapshot, id int64, content string) (*Plan, error) {
	return p.UpdateFile(s, id, nil, &content)
}

// RenameFolder plans the cascade moving every record under oldPath to newPath.
func (p *Planner) RenameFolder(s *Snapshot, oldPath, newPath string) (*Plan, error) {
	oldPath = CleanName(oldPath)
	newPath = CleanName(newPath)
	if err := ValidateFolderPath(oldPath); err != nil {
		return nil, err
	}
	if err := ValidateFolderPath(newPath); err != nil {
		return nil, err
	}

	members := s.members(oldPath)
	if len(members) == 0 {
		return nil, folderNotFound(oldPath)
	}
	if oldPath == newPath {
		return &Plan{}, nil
	}

	oldNorm, newNorm := Normalize(oldPath), Normalize(newPath)
	if oldNorm != newNorm && strings.HasPrefix(newNorm, oldNorm+separator) {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("cannot move folder %q into itself", oldPath),
			ResourceType: "folder",
			Reason:       domain.ErrNamespaceConflict,
		}
	}

	skip := make(map[int64]bool, len(members))
	for _, m := range members {
		skip[m.ID] = true
	}

	// Only a case-only rename may land on the folder it already is
	taken := s.IsFolder(newPath)
	if oldNorm == newNorm {
		taken = s.isFolderExcluding(newNorm, skip)
	}
	if taken {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("folder %q already exists", newPath),
			ResourceType: "folder",
			Reason:       domain.ErrDuplicateFolder,
		}
	}
	if f, ok := s.fileAt(newNorm, skip); ok {
		return nil, namespaceConflict(fmt.Sprintf("%q is a file", f.Name), f)
	}
	if err := s.checkAncestors(newPath, skip); err != nil {
		return nil, err
	}

	plan := &Plan{Updates: make([]models.Record, 0, len(members))}
	for _, m := range members {
		moved := m
		moved.Name = Rebase(m.Name, oldPath, newPath)
		if err := ValidateRecordName(moved.Name); err != nil {
			return nil, err
		}
		plan.Updates = append(plan.Updates, moved)
	}
	return plan, nil
}

// DeleteFile plans removal of one record and reclaims its asset.
func (p *Planner) DeleteFile(s *Snapshot, id int64) (*Plan, error) {
	r, ok := s.Get(id)
	if !ok {
		return nil, recordNotFound(id)
	}
	plan := &Plan{Deletes: []models.Record{r}}
	if p.IsAsset(r) {
		plan.Reclaim = append(plan.Reclaim, r.Content)
	}
	return plan, nil
}

// DeleteFolder plans removal of every record under folderPath.
func (p *Planner) DeleteFolder(s *Snapshot, folderPath string) (*Plan, error) {
	path := CleanName(folderPath)
	if err := ValidateFolderPath(path); err != nil {
		return nil, err
	}

	members := s.members(path)
	if len(members) == 0 {
		return nil, folderNotFound(path)
	}

	plan := &Plan{Deletes: members}
	for _, m := range members {
		if p.IsAsset(m) {
			plan.Reclaim = append(plan.Reclaim, m.Content)
		}
	}
	return plan, nil
}

// checkFilePath enforces uniqueness and the file/folder namespace rule for a
// file named name. self is the record being renamed, 0 for creates.
func (s *Snapshot) checkFilePath(name string, self int64) error {
	norm := Normalize(name)
	if id, ok := s.byName[norm]; ok && id != self {
		existing, _ := s.Get(id)
		return &domain.ConflictError{
			Message:      fmt.Sprintf("a file named %q already exists", existing.Name),
			ResourceType: "file",
			ResourceID:   strconv.FormatInt(id, 10),
			Reason:       domain.ErrDuplicateName,
		}
	}

	var skip map[int64]bool
	if self != 0 {
		skip = map[int64]bool{self: true}
	}
	if s.isFolderExcluding(norm, skip) {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("%q is a folder", name),
			ResourceType: "folder",
			Reason:       domain.ErrNamespaceConflict,
		}
	}
	return s.checkAncestors(name, skip)
}

// checkAncestors rejects paths that would nest under an existing file.
func (s *Snapshot) checkAncestors(path string, skip map[int64]bool) error {
	for _, a := range Ancestors(path) {
		if f, ok := s.fileAt(Normalize(a), skip); ok {
			return namespaceConflict(fmt.Sprintf("%q is a file and cannot contain %q", f.Name, path), f)
		}
	}
	return nil
}

func namespaceConflict(msg string, existing models.Record) error {
	return &domain.ConflictError{
		Message:      msg,
		ResourceType: "file",
		ResourceID:   strconv.FormatInt(existing.ID, 10),
		Reason:       domain.ErrNamespaceConflict,
	}
}

func recordNotFound(id int64) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("file %d not found", id)}
}

func folderNotFound(path string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("folder %q not found", path)}
}
