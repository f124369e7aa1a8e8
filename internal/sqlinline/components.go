package sqlinline

const QInsertComponent = `--sql c5c96b04-4a2e-4402-9210-e1318ff9a2f0
insert into components (
    id, name, category, description, code, props, examples, preview_html, tags,
    generated_by, job_id, owner_id, validation, created_at, updated_at
)
values (
    $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::jsonb, $7::jsonb, $8::text, $9::jsonb,
    $10::text, nullif($11::text, '')::uuid, $12::text, $13::jsonb, $14, $15
);
`

const QUpdateComponent = `--sql c7ce01af-2f19-4e34-930e-a19e30f87b81
update components
set name         = $2::text,
    category     = $3::text,
    description  = $4::text,
    code         = $5::text,
    props        = $6::jsonb,
    examples     = $7::jsonb,
    preview_html = $8::text,
    tags         = $9::jsonb,
    validation   = $10::jsonb,
    updated_at   = $11
where id = $1::uuid;
`

const QSelectComponentByID = `--sql 0981b4ef-1da6-4891-a809-eb2336122a58
select id::text, name, category, description, code, props, examples, preview_html, tags,
       generated_by, coalesce(job_id::text, ''), owner_id, validation, created_at, updated_at
from components
where id = $1::uuid;
`

const QSelectComponentByName = `--sql b5788e63-aa57-425c-bbb1-67b92ef447a0
select id::text, name, category, description, code, props, examples, preview_html, tags,
       generated_by, coalesce(job_id::text, ''), owner_id, validation, created_at, updated_at
from components
where name = $1::text;
`

const QListComponents = `--sql 13aea2b6-21b9-4cbf-9ae2-d5d51f8b2bf5
select id::text, name, category, description, code, props, examples, preview_html, tags,
       generated_by, coalesce(job_id::text, ''), owner_id, validation, created_at, updated_at
from components
where ($1::text = '' or category = $1::text)
  and ($2::text = '' or owner_id = $2::text)
order by created_at desc, name asc
limit $3::int;
`
